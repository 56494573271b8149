package services

import (
	"context"
	"errors"
	"strings"

	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const minPasswordLength = 6

// inputRules applies the HTTP binding rules to callers that skip gin.
var inputRules = validator.New()

type UserService struct {
	db     *gorm.DB
	hasher *auth.Hasher
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     types.Role
	Avatar   string
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) List(ctx context.Context) ([]types.UserResponse, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, storeErr(err, "")
	}

	out := make([]types.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse(user))
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (types.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return types.UserResponse{}, err
	}
	return userResponse(user), nil
}

func (s *UserService) find(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if id == "" {
		return user, types.NotFound("User not found")
	}
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, storeErr(err, "User not found")
}

// findByEmail matches case-insensitively so rows stored before
// normalization are still found.
func (s *UserService) findByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", NormalizeEmail(email)).First(&user).Error
	return user, err
}

func (s *UserService) Create(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, types.Validation("Name, email and password are required")
	}
	if err := inputRules.Var(in.Email, "email"); err != nil {
		return models.User{}, types.Validation("Invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, types.Validation("Password must be at least %d characters", minPasswordLength)
	}
	if in.Role == "" {
		in.Role = types.RoleDeveloper
	}
	if !in.Role.Valid() {
		return models.User{}, types.Validation("Invalid role %q", in.Role)
	}

	_, err := s.findByEmail(ctx, in.Email)
	if err == nil {
		return models.User{}, types.Conflict("Email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, storeErr(err, "")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, types.Internal(err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Avatar:       in.Avatar,
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, types.Conflict("Email already exists")
		}
		return models.User{}, storeErr(err, "")
	}

	return user, nil
}
