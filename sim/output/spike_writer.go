package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/hybridsim/hybridsim/sim"
)

// SpikeWriter logs every spike as a "time neuron" text line, the format read
// back by input.FileSource. The first write error is kept and reported by
// Err and Close; later spikes are dropped.
type SpikeWriter struct {
	name   string
	w      *bufio.Writer
	closer io.Closer
	err    error
}

var _ sim.SpikeSink = (*SpikeWriter)(nil)

// CreateSpikeWriter creates (or truncates) path.
func CreateSpikeWriter(path string) (*SpikeWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, sim.NewConnectionError(path, err)
	}
	sw := NewSpikeWriter(path, f)
	sw.closer = f
	return sw, nil
}

// NewSpikeWriter writes to w; name identifies the stream in errors.
func NewSpikeWriter(name string, w io.Writer) *SpikeWriter {
	return &SpikeWriter{name: name, w: bufio.NewWriter(w)}
}

// Name implements sim.Named.
func (s *SpikeWriter) Name() string { return s.name }

func (s *SpikeWriter) OnSpike(t float64, n *sim.Neuron) {
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, "%.9g %d\n", t, n.Index()); err != nil {
		s.err = sim.NewConnectionError(s.name, err)
	}
}

// Err returns the first write failure.
func (s *SpikeWriter) Err() error { return s.err }

// Close flushes buffered lines and closes the file, if any.
func (s *SpikeWriter) Close() error {
	if s.err == nil {
		if err := s.w.Flush(); err != nil {
			s.err = sim.NewConnectionError(s.name, err)
		}
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && s.err == nil {
			s.err = sim.NewConnectionError(s.name, err)
		}
	}
	return s.err
}
