package scraper

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Slack posts log messages to a Slack channel through RT-CV. The internal
// channel is read by the scraper developers, the external one by operators.
type Slack struct {
	internal bool
	server   *Server
}

// InternalSlack logs to the developers channel. It is nil for the
// alternative server; a nil Slack drops every message.
func (s *Server) InternalSlack() *Slack { return s.internalSlack }

// ExternalSlack logs to the operators channel.
func (s *Server) ExternalSlack() *Slack { return s.externalSlack }

// Info posts an info message.
func (sl *Slack) Info(ctx context.Context, message string, fields map[string]any) {
	sl.log(ctx, "info", message, fields)
}

// Warn posts a warning.
func (sl *Slack) Warn(ctx context.Context, message string, fields map[string]any) {
	sl.log(ctx, "warn", message, fields)
}

// Error posts an error.
func (sl *Slack) Error(ctx context.Context, message string, fields map[string]any) {
	sl.log(ctx, "error", message, fields)
}

func (sl *Slack) log(ctx context.Context, level, message string, fields map[string]any) {
	if sl == nil {
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	err := sl.server.Fetch(ctx, "/api/v1/scraper/log", FetchOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"internal": sl.internal,
			"message":  message,
			"level":    level,
			"fields":   fields,
		},
	}, nil)
	if err != nil {
		sl.server.logger.Warn("failed to log to slack", zap.String("level", level), zap.Error(err))
	}
}
