package session

import "go.uber.org/zap"

// Notifier is the user-notification boundary. Screens report outcomes
// through it instead of rendering anything themselves.
type Notifier interface {
	Success(title, message string)
	Warning(title, message string)
	Error(title, message string)
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a Notifier that records notices in the
// structured log.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Success(title, message string) {
	n.log.Info("notice", zap.String("level", "success"), zap.String("title", title), zap.String("message", message))
}

func (n *logNotifier) Warning(title, message string) {
	n.log.Warn("notice", zap.String("level", "warning"), zap.String("title", title), zap.String("message", message))
}

func (n *logNotifier) Error(title, message string) {
	n.log.Error("notice", zap.String("level", "error"), zap.String("title", title), zap.String("message", message))
}
