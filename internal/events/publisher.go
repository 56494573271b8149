package events

import (
	"context"
	"errors"
	"log/slog"
)

// Publisher delivers activity events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event Event) error {
	fields := []any{
		"event_type", string(event.Type),
		"project_id", event.Project.ID,
		"actor_id", event.ActorID,
	}
	if event.Issue != nil {
		fields = append(fields, "issue_key", event.Issue.Key)
	}
	p.logger.InfoContext(ctx, "published event", fields...)
	return nil
}
