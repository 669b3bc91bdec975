// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fixpoint/internal/limiter"
	"fixpoint/internal/models"
	"fixpoint/internal/observability"
	"fixpoint/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "fixpoint-api"
	tokenAudience = "fixpoint-client"
	tokenTTL      = 24 * time.Hour
)

type AuthService struct {
	userRepo  userStore
	limiter   *limiter.LoginLimiter
	jwtSecret string
}

// userStore is the subset of repository.UserRepository authentication needs.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Address  string
}

func NewAuthService(userRepo userStore, loginLimiter *limiter.LoginLimiter, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		limiter:   loginLimiter,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new account with the USER role. Admin accounts are only
// created by seeding or by an existing admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("A user with that email already exists")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("That username is taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Address:  in.Address,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials. Failed attempts count toward the lockout
// window whether the email exists or not, so probing unknown emails is rate
// limited the same as wrong passwords.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if locked, retryAfter := s.limiter.Check(email); locked {
		observability.LoginLockouts.Inc()
		return nil, models.NewRateLimitedError(fmt.Sprintf(
			"Too many failed login attempts. Try again in %d seconds", int(retryAfter.Seconds())+1))
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.limiter.RecordFailure(email)
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.limiter.RecordFailure(email)
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	s.limiter.Reset(email)
	return user, nil
}

// IssueToken signs a session token carrying the user's role so authorization
// checks do not need a database round trip.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"role":     string(user.Role),
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}
