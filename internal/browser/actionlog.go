// internal/browser/actionlog.go
package browser

import (
	"go.uber.org/zap"
)

// ZapActionLogger is the fire-and-forget action log sink backed by the
// structured logger.
type ZapActionLogger struct {
	logger *zap.Logger
}

// NewZapActionLogger creates an action logger writing to the given logger.
func NewZapActionLogger(logger *zap.Logger) *ZapActionLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapActionLogger{logger: logger.Named("actions")}
}

// LogAction records one action event. Failures here never propagate; the
// log sink is observability, not control flow.
func (l *ZapActionLogger) LogAction(actionType string, context map[string]interface{}) {
	l.logger.Info("Action",
		zap.String("action_type", actionType),
		zap.Any("context", context))
}
