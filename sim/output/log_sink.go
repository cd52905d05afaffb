package output

import (
	"github.com/sirupsen/logrus"

	"github.com/hybridsim/hybridsim/sim"
)

// LogSink reports spikes and state samples as structured log entries.
type LogSink struct {
	logger *logrus.Logger
	level  logrus.Level
}

var (
	_ sim.SpikeSink = (*LogSink)(nil)
	_ sim.StateSink = (*LogSink)(nil)
)

// NewLogSink logs to logger at level. A nil logger means the standard logger.
func NewLogSink(logger *logrus.Logger, level logrus.Level) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{logger: logger, level: level}
}

func (l *LogSink) OnSpike(t float64, n *sim.Neuron) {
	if !l.logger.IsLevelEnabled(l.level) {
		return
	}
	l.logger.WithFields(logrus.Fields{
		"t":      t,
		"neuron": n.Index(),
		"model":  n.Model().ModelID(),
	}).Log(l.level, "spike")
}

func (l *LogSink) OnStateSample(t float64, n *sim.Neuron) {
	if !l.logger.IsLevelEnabled(l.level) {
		return
	}
	l.logger.WithFields(logrus.Fields{
		"t":      t,
		"neuron": n.Index(),
		"state":  stateValues(n),
	}).Log(l.level, "state")
}
