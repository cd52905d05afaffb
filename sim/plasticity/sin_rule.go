package plasticity

import (
	"math"

	"github.com/hybridsim/hybridsim/sim"
)

// SinConfig holds the parameters of the sinusoidal-kernel rule.
type SinConfig struct {
	Exponent int     `yaml:"exponent" toml:"exponent" json:"exponent"`
	Maxpos   float64 `yaml:"maxpos" toml:"maxpos" json:"maxpos"`
	// APre is added to the weight on every presynaptic arrival.
	APre float64 `yaml:"a_pre" toml:"a_pre" json:"a_pre"`
	// APost scales the kernel activity added on every postsynaptic (teaching) spike.
	APost float64 `yaml:"a_post" toml:"a_post" json:"a_post"`
}

// SinRule is a supervised rule: each presynaptic arrival adds a constant
// APre, and each firing of the target acts as a teaching signal that adds
// APost times the kernel activity left by recent arrivals. A negative APost
// yields depression of inputs that preceded the teaching spike by about maxpos.
type SinRule struct {
	cfg SinConfig
}

var _ sim.LearningRule = (*SinRule)(nil)

// NewSinRule validates cfg and creates the rule.
func NewSinRule(cfg SinConfig) (*SinRule, error) {
	if err := validateSinExponent(cfg.Exponent); err != nil {
		return nil, &sim.Error{Kind: sim.KindConfiguration, Source: "sin", Err: err}
	}
	if math.IsNaN(cfg.APre) || math.IsNaN(cfg.APost) || math.IsNaN(cfg.Maxpos) {
		return nil, sim.NewConfigurationError("sin", 0, "parameters must be numbers")
	}
	return &SinRule{cfg: cfg}, nil
}

func (r *SinRule) Name() string { return "sin" }

// NewConnectionState returns a zeroed kernel state.
func (r *SinRule) NewConnectionState() sim.ConnectionState {
	st, err := NewSinState(r.cfg.Exponent, r.cfg.Maxpos)
	if err != nil {
		// exponent was validated by NewSinRule
		panic(err)
	}
	return st
}

// ApplyPreSynapticSpike starts a kernel and adds APre.
func (r *SinRule) ApplyPreSynapticSpike(conn *sim.Interconnection, t float64) {
	conn.AdvanceStateTo(t)
	conn.ConnectionState().ApplyPresynapticSpike()
	conn.Weight += r.cfg.APre
	conn.ClampWeight()
}

// ApplyPostSynapticSpike adds APost times the current kernel activity.
func (r *SinRule) ApplyPostSynapticSpike(conn *sim.Interconnection, t float64) {
	conn.AdvanceStateTo(t)
	st := conn.ConnectionState()
	st.ApplyPostsynapticSpike()
	conn.Weight += r.cfg.APost * st.PresynapticActivity()
	conn.ClampWeight()
}
