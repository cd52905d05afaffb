package plasticity

import (
	"math"

	"github.com/hybridsim/hybridsim/sim"
)

// STDPConfig holds the parameters of the additive pair-based STDP rule.
type STDPConfig struct {
	MaxChangeLTP float64 `yaml:"a_ltp" toml:"a_ltp" json:"a_ltp"`
	MaxChangeLTD float64 `yaml:"a_ltd" toml:"a_ltd" json:"a_ltd"`
	TauLTP       float64 `yaml:"tau_ltp" toml:"tau_ltp" json:"tau_ltp"`
	TauLTD       float64 `yaml:"tau_ltd" toml:"tau_ltd" json:"tau_ltd"`
}

// STDP depresses a synapse on every presynaptic arrival by MaxChangeLTD times
// the postsynaptic trace, and potentiates it on every postsynaptic firing by
// MaxChangeLTP times the presynaptic trace.
type STDP struct {
	cfg STDPConfig
}

var _ sim.LearningRule = (*STDP)(nil)

// NewSTDP validates cfg and creates the rule.
func NewSTDP(cfg STDPConfig) (*STDP, error) {
	switch {
	case !(cfg.TauLTP > 0) || math.IsInf(cfg.TauLTP, 0):
		return nil, sim.NewConfigurationError("stdp", 0, "tau_ltp must be positive and finite, got %g", cfg.TauLTP)
	case !(cfg.TauLTD > 0) || math.IsInf(cfg.TauLTD, 0):
		return nil, sim.NewConfigurationError("stdp", 0, "tau_ltd must be positive and finite, got %g", cfg.TauLTD)
	case math.IsNaN(cfg.MaxChangeLTP) || math.IsNaN(cfg.MaxChangeLTD):
		return nil, sim.NewConfigurationError("stdp", 0, "weight change amplitudes must be numbers")
	}
	return &STDP{cfg: cfg}, nil
}

func (r *STDP) Name() string { return "stdp" }

// NewConnectionState returns zeroed pre/post traces with the rule's time constants.
func (r *STDP) NewConnectionState() sim.ConnectionState {
	return NewSTDPState(r.cfg.TauLTP, r.cfg.TauLTD)
}

// ApplyPreSynapticSpike records the arrival and depresses the weight.
func (r *STDP) ApplyPreSynapticSpike(conn *sim.Interconnection, t float64) {
	conn.AdvanceStateTo(t)
	st := conn.ConnectionState()
	st.ApplyPresynapticSpike()
	conn.Weight -= r.cfg.MaxChangeLTD * st.PostsynapticActivity()
	conn.ClampWeight()
}

// ApplyPostSynapticSpike records the target firing and potentiates the weight.
func (r *STDP) ApplyPostSynapticSpike(conn *sim.Interconnection, t float64) {
	conn.AdvanceStateTo(t)
	st := conn.ConnectionState()
	st.ApplyPostsynapticSpike()
	conn.Weight += r.cfg.MaxChangeLTP * st.PresynapticActivity()
	conn.ClampWeight()
}
