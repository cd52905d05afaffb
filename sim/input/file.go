// Package input provides spike sources for the simulator: replay of a spike
// file and stochastic generators drawn from a partitioned RNG.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hybridsim/hybridsim/sim"
)

// FileSource replays spikes from a text stream with one "time neuron" pair
// per line. Blank lines and lines starting with '#' are skipped. Spikes must
// appear in non-decreasing time order.
type FileSource struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	last    float64
	done    bool
}

var _ sim.SpikeSource = (*FileSource)(nil)

// OpenFileSource opens path for replay. The caller closes the source.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sim.NewConnectionError(path, err)
	}
	src := NewReaderSource(path, f)
	src.closer = f
	return src, nil
}

// NewReaderSource replays spikes read from r; name identifies the stream in errors.
func NewReaderSource(name string, r io.Reader) *FileSource {
	return &FileSource{name: name, scanner: bufio.NewScanner(r)}
}

// Name implements sim.Named.
func (s *FileSource) Name() string { return s.name }

// NextSpike returns the next spike, or nil at end of stream.
func (s *FileSource) NextSpike() (*sim.InputSpike, error) {
	if s.done {
		return nil, nil
	}
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		spike, err := s.parse(text)
		if err != nil {
			return nil, err
		}
		return spike, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return nil, sim.NewConnectionError(s.name, err)
	}
	return nil, nil
}

func (s *FileSource) parse(text string) (*sim.InputSpike, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return nil, sim.NewConfigurationError(s.name, s.line, "expected \"time neuron\", got %d fields", len(fields))
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, sim.NewConfigurationError(s.name, s.line, "bad spike time %q", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return nil, sim.NewConfigurationError(s.name, s.line, "bad neuron index %q", fields[1])
	}
	if t < s.last {
		return nil, sim.NewConfigurationError(s.name, s.line, "spike time %g precedes %g", t, s.last)
	}
	s.last = t
	return &sim.InputSpike{Time: t, Neuron: n}, nil
}

// Close releases the underlying file, if any.
func (s *FileSource) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.name, err)
	}
	return nil
}
