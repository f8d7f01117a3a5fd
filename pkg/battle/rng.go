package battle

// Stream is a deterministic xorshift64* random stream with explicit,
// serializable state. The engine owns one stream per game; every draw
// it makes happens at a fixed point in the resolution pipeline, so two
// games with the same seed and the same order batches consume the
// stream identically.
//
// Bots and searchers must use their own Streams, never the game's.
type Stream struct {
	State uint64 `json:"state"`
}

// NewStream seeds a stream. The raw seed is passed through splitmix64
// so that small or similar seeds still produce well-mixed states, and
// the all-zero state (which xorshift cannot leave) is avoided.
func NewStream(seed int64) *Stream {
	z := uint64(seed) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 0x9e3779b97f4a7c15
	}
	return &Stream{State: z}
}

// Next advances the stream and returns 64 random bits.
func (s *Stream) Next() uint64 {
	x := s.State
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.State = x
	return x * 0x2545f4914f6cdd1d
}

// Intn returns a uniform value in [0, n). Panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("battle: Intn with non-positive n")
	}
	return int(s.Next() % uint64(n))
}

// IntRange returns a uniform value in [lo, hi] inclusive.
func (s *Stream) IntRange(lo, hi int) int {
	return lo + s.Intn(hi-lo+1)
}

// Float64 returns a uniform value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Next()>>11) / (1 << 53)
}

// Clone returns an independent stream at the same position.
func (s *Stream) Clone() *Stream {
	return &Stream{State: s.State}
}

// Shuffle permutes xs in place using Fisher-Yates.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// Perm returns a random permutation of the integers 1..n.
func (s *Stream) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	s.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
