package host

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to fsm.Logger, grounded on the teacher corpus's
// near-universal choice of zap for structured logging (GoCodeAlone-modular wires
// zap.SugaredLogger through its module graph the same way).
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps sugar, or a no-op logger if sugar is nil.
func NewZapLogger(sugar *zap.SugaredLogger) *ZapLogger {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &ZapLogger{sugar: sugar}
}

func (l *ZapLogger) Debugw(msg string, keysAndValues ...any) { l.sugar.Debugw(msg, keysAndValues...) }
func (l *ZapLogger) Infow(msg string, keysAndValues ...any)  { l.sugar.Infow(msg, keysAndValues...) }
func (l *ZapLogger) Warnw(msg string, keysAndValues ...any)  { l.sugar.Warnw(msg, keysAndValues...) }
func (l *ZapLogger) Errorw(msg string, keysAndValues ...any) { l.sugar.Errorw(msg, keysAndValues...) }
