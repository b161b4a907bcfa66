package dbcontext

import "go.uber.org/zap"

// ErrorSink receives the full detail of every backend failure. It is
// append-only and never consulted for control flow: callers of the swallowing
// operations see only the fixed FailureMessage, so the sink is where the real
// error goes. One destination per operation kind.
type ErrorSink interface {
	Record(op, procedure string, err error)
}

// ZapSink records failures through a zap logger, one named child logger per
// operation kind.
type ZapSink struct {
	base *zap.Logger
}

func NewZapSink(l *zap.Logger) *ZapSink {
	return &ZapSink{base: l}
}

func (s *ZapSink) Record(op, procedure string, err error) {
	s.base.Named(op).Error("procedure call failed",
		zap.String("procedure", procedure),
		zap.Error(err),
	)
}

// NopSink discards everything. Useful in tests.
type NopSink struct{}

func (NopSink) Record(string, string, error) {}

func defaultSink() ErrorSink {
	l, err := zap.NewProduction()
	if err != nil {
		return NopSink{}
	}
	return NewZapSink(l)
}
