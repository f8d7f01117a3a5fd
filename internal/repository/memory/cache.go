package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache implements GameCache with in-process maps. It mirrors the Redis
// layout: one state blob, one order batch per seat, a ready set, a timer.
type Cache struct {
	mu     sync.RWMutex
	states map[string]json.RawMessage
	orders map[string]json.RawMessage // key: "gameID:seat"
	ready  map[string]map[string]bool // gameID -> set of seats
	timers map[string]time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		states: make(map[string]json.RawMessage),
		orders: make(map[string]json.RawMessage),
		ready:  make(map[string]map[string]bool),
		timers: make(map[string]time.Time),
	}
}

func (c *Cache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = state
	return nil
}

func (c *Cache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[gameID], nil
}

func (c *Cache) SetOrders(_ context.Context, gameID, seat string, orders json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[gameID+":"+seat] = orders
	return nil
}

func (c *Cache) GetOrders(_ context.Context, gameID, seat string) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders[gameID+":"+seat], nil
}

func (c *Cache) GetAllOrders(_ context.Context, gameID string, seats []string) (map[string]json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]json.RawMessage)
	for _, seat := range seats {
		if data, ok := c.orders[gameID+":"+seat]; ok {
			result[seat] = data
		}
	}
	return result, nil
}

func (c *Cache) MarkReady(_ context.Context, gameID, seat string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[gameID] == nil {
		c.ready[gameID] = make(map[string]bool)
	}
	c.ready[gameID][seat] = true
	return nil
}

func (c *Cache) UnmarkReady(_ context.Context, gameID, seat string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[gameID] != nil {
		delete(c.ready[gameID], seat)
	}
	return nil
}

func (c *Cache) ReadyCount(_ context.Context, gameID string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.ready[gameID])), nil
}

func (c *Cache) ReadySeats(_ context.Context, gameID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []string
	for seat := range c.ready[gameID] {
		result = append(result, seat)
	}
	return result, nil
}

func (c *Cache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[gameID] = deadline
	return nil
}

func (c *Cache) ClearTimer(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, gameID)
	return nil
}

func (c *Cache) ClearTurnData(_ context.Context, gameID string, seats []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	for _, seat := range seats {
		delete(c.orders, gameID+":"+seat)
	}
	return nil
}

func (c *Cache) DeleteGameData(_ context.Context, gameID string, seats []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, gameID)
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	for _, seat := range seats {
		delete(c.orders, gameID+":"+seat)
	}
	return nil
}
