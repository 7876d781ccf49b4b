package logger

import (
	"go.uber.org/zap"

	"github.com/alexhholmes/marktree"
)

// Name is the logger name zap entries from a tree carry.
const Name = "marktree"

// Zap wraps a zap.Logger to implement marktree.Logger. Key/value pairs from
// the tree become zap fields through the sugared logger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap creates a marktree.Logger from a zap.Logger, naming it Name so tree
// events can be told apart from the host program's.
func NewZap(logger *zap.Logger) marktree.Logger {
	return &Zap{sugar: logger.Named(Name).Sugar()}
}

// Error reports a failed Check.
func (z *Zap) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

// Warn reports a pair that could not be restored.
func (z *Zap) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

// Info reports height changes and Clear.
func (z *Zap) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}
