package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DispatcherLogger bridges the dispatcher's key-value logging calls onto a
// zerolog.Logger, keeping the fields in call order.
type DispatcherLogger struct {
	log zerolog.Logger
}

// NewDispatcherLogger wraps a zerolog.Logger for use as a dispatcher.Logger.
func NewDispatcherLogger(log zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{log: log}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	emit(l.log.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	emit(l.log.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	emit(l.log.Error(), msg, keysAndValues)
}

// emit appends the pairs to the event and fires it. A trailing key without a
// value is dropped; non-string keys are stringified rather than lost.
func emit(e *zerolog.Event, msg string, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	e.Msg(msg)
}
