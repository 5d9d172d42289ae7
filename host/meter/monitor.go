// Package meter receives the reading report stream from a meter.
package meter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gometer/core"
	"gometer/host/serial"
	"gometer/protocol"
)

// Stats counts what the monitor has seen on the wire.
type Stats struct {
	Readings  uint32 // decoded readings
	Unknown   uint32 // valid frames that were not readings
	Lost      uint32 // frames missing according to the sequence number
	BadFrames uint32 // CRC or framing errors
}

// Monitor decodes readings from a report stream. Run owns the port.
type Monitor struct {
	port     io.ReadCloser
	dec      *protocol.FrameDecoder
	readings chan core.Reading

	mu    sync.Mutex
	stats Stats
}

// Open opens a serial port and returns a monitor reading from it.
func Open(cfg *serial.Config) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

// New creates a monitor reading from port.
func New(port io.ReadCloser) *Monitor {
	return &Monitor{
		port:     port,
		dec:      protocol.NewFrameDecoder(),
		readings: make(chan core.Reading, 16),
	}
}

// Readings delivers decoded readings in arrival order. It is closed when
// Run returns.
func (m *Monitor) Readings() <-chan core.Reading {
	return m.readings
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Run reads and decodes until ctx is done, the stream ends or the port
// fails. It closes the port. End of stream is not an error.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.readings)

	// unblock a pending Read on cancellation
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		m.port.Close()
	}()

	buffer := make([]byte, 256)
	for {
		n, err := m.port.Read(buffer)
		if n > 0 {
			m.dec.Feed(buffer[:n])
			if err := m.drain(ctx); err != nil {
				return err
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read report stream: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// drain decodes every complete frame buffered in the decoder.
func (m *Monitor) drain(ctx context.Context) error {
	for {
		frame, ok := m.dec.Next()
		m.mu.Lock()
		m.stats.Lost = m.dec.Lost()
		m.stats.BadFrames = m.dec.Errors()
		m.mu.Unlock()
		if !ok {
			return nil
		}

		payload := frame.Payload
		r, err := core.DecodeReading(&payload)
		if err != nil {
			m.mu.Lock()
			m.stats.Unknown++
			m.mu.Unlock()
			continue
		}
		m.mu.Lock()
		m.stats.Readings++
		m.mu.Unlock()

		select {
		case m.readings <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
