package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/events"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
)

const serviceName = "flowtrack"

type Deps struct {
	DB        *gorm.DB
	Signer    *auth.Signer
	Hasher    *auth.Hasher
	Lockout   auth.LockoutStore
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Services bundles every domain service over one shared database handle.
type Services struct {
	Auth     *AuthService
	Users    *UserService
	Projects *ProjectService
	Sprints  *SprintService
	Issues   *IssueService
	Comments *CommentService
}

func New(deps Deps) *Services {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Lockout == nil {
		deps.Lockout = auth.NoopLockout{}
	}
	if deps.Hasher == nil {
		deps.Hasher = auth.NewHasher(0)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Fanout{}
	}

	base := deps.Logger.With("service", serviceName, "layer", "service")
	sink := &eventSink{publisher: deps.Publisher, logger: base.With("module", "events")}

	users := &UserService{db: deps.DB, hasher: deps.Hasher}

	return &Services{
		Auth:     newAuthService(users, deps.Signer, deps.Hasher, deps.Lockout, base.With("module", "auth")),
		Users:    users,
		Projects: &ProjectService{db: deps.DB, events: sink},
		Sprints:  &SprintService{db: deps.DB},
		Issues:   &IssueService{db: deps.DB, events: sink},
		Comments: &CommentService{db: deps.DB, events: sink},
	}
}

// eventSink publishes activity events. Delivery failures are logged and
// never fail the operation that produced the event.
type eventSink struct {
	publisher events.Publisher
	logger    *slog.Logger
}

func (s *eventSink) emit(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event delivery failed",
			"event_type", string(event.Type),
			"project_id", event.Project.ID,
			"error", err.Error(),
		)
	}
}

// storeErr maps gorm sentinels onto the API taxonomy.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Conflict("Duplicate value violates a unique constraint")
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	return types.Internal(err)
}
