package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
)

// AuthService authenticates users and resolves bearer tokens. Sessions are
// stateless: ending one is the client discarding its token.
type AuthService struct {
	users   *UserService
	signer  *auth.Signer
	hasher  *auth.Hasher
	lockout auth.LockoutStore
	logger  *slog.Logger
	now     func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func newAuthService(users *UserService, signer *auth.Signer, hasher *auth.Hasher, lockout auth.LockoutStore, logger *slog.Logger) *AuthService {
	dummy, err := hasher.Hash("flowtrack-unknown-user")
	if err != nil {
		logger.Warn("failed to prepare dummy hash", "error", err.Error())
	}
	return &AuthService{
		users:     users,
		signer:    signer,
		hasher:    hasher,
		lockout:   lockout,
		logger:    logger,
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (types.AuthResponse, error) {
	key := NormalizeEmail(email)
	if key == "" || password == "" {
		return types.AuthResponse{}, types.Validation("Email and password are required")
	}

	_, locked, err := s.lockout.LockedUntil(ctx, key, s.now())
	if err != nil {
		s.logger.WarnContext(ctx, "lockout lookup failed", "error", err.Error())
	}
	if locked {
		return types.AuthResponse{}, types.Unauthorized("Too many failed login attempts, try again later")
	}

	user, err := s.users.findByEmail(ctx, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return types.AuthResponse{}, storeErr(err, "")
	}

	if err != nil {
		_ = s.hasher.Compare(s.dummyHash, password)
		s.recordFailure(ctx, key)
		return types.AuthResponse{}, types.InvalidCredentials()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, key)
		return types.AuthResponse{}, types.InvalidCredentials()
	}

	if err := s.lockout.Clear(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "lockout clear failed", "error", err.Error())
	}

	token, err := s.signer.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return types.AuthResponse{}, types.Internal(err)
	}

	return types.AuthResponse{User: userResponse(user), Token: token}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if err := s.lockout.RecordFailure(ctx, key, s.now()); err != nil {
		s.logger.WarnContext(ctx, "lockout record failed", "error", err.Error())
	}
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.AuthResponse, error) {
	user, err := s.users.Create(ctx, in)
	if err != nil {
		return types.AuthResponse{}, err
	}

	token, err := s.signer.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return types.AuthResponse{}, types.Internal(err)
	}

	return types.AuthResponse{User: userResponse(user), Token: token}, nil
}

// ResolveSession verifies token and loads the user it names.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (types.UserResponse, error) {
	if token == "" {
		return types.UserResponse{}, types.Unauthorized("Unauthorized")
	}

	claims, err := s.signer.VerifyJWT(token)
	if err != nil {
		return types.UserResponse{}, types.Unauthorized("Invalid or expired token")
	}

	user, err := s.users.find(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.UserResponse{}, types.Unauthorized("User not found")
		}
		return types.UserResponse{}, err
	}

	return userResponse(user), nil
}
