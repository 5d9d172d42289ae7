package sim

import (
	"math"
	"math/rand"
	"sync"
)

// RawPerVolt is the AD1 code for one volt at the input, matching the volts
// DC calibration.
const RawPerVolt = 600000

const (
	rawMax = 1<<23 - 1
	rawMin = -1 << 23
)

// Source is a DC voltage at the input jacks with optional gaussian noise.
type Source struct {
	mu    sync.Mutex
	volts float64
	noise float64
	rnd   *rand.Rand
}

// NewSource creates a source at 0V. seed makes the noise repeatable.
func NewSource(seed int64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// Set changes the voltage and the noise standard deviation, in volts.
func (s *Source) Set(volts, noise float64) {
	s.mu.Lock()
	s.volts, s.noise = volts, math.Abs(noise)
	s.mu.Unlock()
}

// Volts returns the nominal voltage.
func (s *Source) Volts() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volts
}

// Raw returns the next AD1 conversion, clamped to the 24-bit code range.
func (s *Source) Raw() int64 {
	s.mu.Lock()
	v := s.volts
	if s.noise > 0 {
		v += s.rnd.NormFloat64() * s.noise
	}
	s.mu.Unlock()

	raw := math.Round(v * RawPerVolt)
	switch {
	case raw > rawMax:
		return rawMax
	case raw < rawMin:
		return rawMin
	}
	return int64(raw)
}
