package output

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hybridsim/hybridsim/sim"
)

// WeightSnapshot is one YAML document written by WeightWriter.
type WeightSnapshot struct {
	Run         string           `yaml:"run"`
	Time        float64          `yaml:"time"`
	Connections []ConnectionDump `yaml:"connections"`
}

// ConnectionDump is the saved state of one taught connection.
// Weight is current at the snapshot time. State holds the traces as of
// StateTime, the connection's last spike hook; they are not advanced to the
// snapshot time.
type ConnectionDump struct {
	Index     int       `yaml:"index"`
	Source    int       `yaml:"source"`
	Target    int       `yaml:"target"`
	Weight    float64   `yaml:"weight"`
	Rule      string    `yaml:"rule,omitempty"`
	StateTime float64   `yaml:"state_time,omitempty"`
	State     []float64 `yaml:"state,flow,omitempty"`
}

// WeightWriter appends a YAML document per save step, tagged with the run ID.
type WeightWriter struct {
	name   string
	run    string
	enc    *yaml.Encoder
	closer io.Closer
}

var _ sim.WeightSink = (*WeightWriter)(nil)

// CreateWeightWriter creates (or truncates) path.
func CreateWeightWriter(path, runID string) (*WeightWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, sim.NewConnectionError(path, err)
	}
	ww := NewWeightWriter(path, runID, f)
	ww.closer = f
	return ww, nil
}

// NewWeightWriter writes to w; name identifies the stream in errors.
func NewWeightWriter(name, runID string, w io.Writer) *WeightWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &WeightWriter{name: name, run: runID, enc: enc}
}

// Name implements sim.Named.
func (ww *WeightWriter) Name() string { return ww.name }

// OnWeights writes one snapshot of conns.
func (ww *WeightWriter) OnWeights(t float64, conns []*sim.Interconnection) error {
	snap := WeightSnapshot{Run: ww.run, Time: t, Connections: make([]ConnectionDump, len(conns))}
	for i, c := range conns {
		d := ConnectionDump{
			Index:  c.Index(),
			Source: c.Source().Index(),
			Target: c.Target().Index(),
			Weight: c.Weight,
		}
		if r := c.LearningRule(); r != nil {
			d.Rule = r.Name()
		}
		if st := c.ConnectionState(); st != nil {
			d.StateTime = st.LastUpdateTime()
			d.State = st.PrintableValues()
		}
		snap.Connections[i] = d
	}
	if err := ww.enc.Encode(&snap); err != nil {
		return fmt.Errorf("writing weights at %g: %w", t, err)
	}
	return nil
}

// Close finishes the YAML stream and closes the file, if any.
func (ww *WeightWriter) Close() error {
	if err := ww.enc.Close(); err != nil {
		return sim.NewConnectionError(ww.name, err)
	}
	if ww.closer != nil {
		if err := ww.closer.Close(); err != nil {
			return sim.NewConnectionError(ww.name, err)
		}
	}
	return nil
}

// ReadWeightSnapshots decodes every snapshot in r.
func ReadWeightSnapshots(r io.Reader) ([]WeightSnapshot, error) {
	dec := yaml.NewDecoder(r)
	var snaps []WeightSnapshot
	for {
		var s WeightSnapshot
		if err := dec.Decode(&s); err == io.EOF {
			return snaps, nil
		} else if err != nil {
			return nil, fmt.Errorf("decoding weight snapshot %d: %w", len(snaps), err)
		}
		snaps = append(snaps, s)
	}
}
