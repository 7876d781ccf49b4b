package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alexhholmes/marktree"
)

// Logrus wraps a logrus.Logger to implement marktree.Logger.
type Logrus struct {
	logger *logrus.Logger
}

// NewLogrus creates a marktree.Logger from a logrus.Logger.
func NewLogrus(logger *logrus.Logger) marktree.Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Error(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Error(msg)
}

func (l *Logrus) Warn(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Warn(msg)
}

func (l *Logrus) Info(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Info(msg)
}

// argsToFields turns slog style key-value pairs into logrus fields. Keys that
// are not strings are formatted; a dangling key gets a nil value.
func argsToFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		var v any
		if i+1 < len(args) {
			v = args[i+1]
		}
		fields[key] = v
	}
	return fields
}
