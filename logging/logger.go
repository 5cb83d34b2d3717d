// Package logging provides the structured-event interface used by the
// buffer pool and index packages, plus a zap-backed default.
package logging

import "go.uber.org/zap"

// Logger matches the shape of slog: each call takes a message and a flat
// list of key/value pairs. The buffer pool and index packages depend only
// on this interface, never on a concrete logging library.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Discard is the default logger used when none is supplied; it compiles to
// a no-op.
type Discard struct{}

func (Discard) Error(string, ...any) {}
func (Discard) Warn(string, ...any)  {}
func (Discard) Info(string, ...any)  {}

// Zap adapts *zap.Logger (via its SugaredLogger) to the Logger interface.
type Zap struct {
	s *zap.SugaredLogger
}

// NewZap wraps an existing *zap.Logger. Passing nil builds a production
// logger with zap.NewProduction(); any construction error falls back to a
// no-op logger rather than panicking the caller.
func NewZap(l *zap.Logger) *Zap {
	if l == nil {
		built, err := zap.NewProduction()
		if err != nil {
			built = zap.NewNop()
		}
		l = built
	}
	return &Zap{s: l.Sugar()}
}

func (z *Zap) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }
func (z *Zap) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z *Zap) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
