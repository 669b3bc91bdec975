package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fixpoint/internal/limiter"
	"fixpoint/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-0123456789abcdef0123456789"

func newTestLimiter() *limiter.LoginLimiter {
	return limiter.NewLoginLimiter(5, 15*time.Minute)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates user with USER role and hashed password", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var created *models.User
		repo.createFn = func(_ context.Context, u *models.User) error {
			created = u
			return nil
		}
		svc := NewAuthService(repo, newTestLimiter(), testJWTSecret)

		user, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "Sup3rSecret",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NotEqual(t, "Sup3rSecret", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Sup3rSecret")))
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(noopUserRepo(), newTestLimiter(), testJWTSecret)

		for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
			_, err := svc.Register(context.Background(), RegisterInput{
				Username: "alice",
				Email:    "alice@example.com",
				Password: password,
			})
			assertValidationError(t, err)
		}
	})

	t.Run("rejects malformed usernames", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(noopUserRepo(), newTestLimiter(), testJWTSecret)

		for _, username := range []string{"ab", strings.Repeat("x", 31), "has space", "bad!char"} {
			_, err := svc.Register(context.Background(), RegisterInput{
				Username: username,
				Email:    "alice@example.com",
				Password: "Sup3rSecret",
			})
			assertValidationError(t, err)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email}, nil
		}
		svc := NewAuthService(repo, newTestLimiter(), testJWTSecret)

		_, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice",
			Email:    "taken@example.com",
			Password: "Sup3rSecret",
		})
		assertAppErrorCode(t, err, "CONFLICT")
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	makeRepo := func(t *testing.T, password string) *userRepoStub {
		hash := hashPassword(t, password)
		repo := noopUserRepo()
		repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
			if email == "bob@example.com" {
				return &models.User{ID: 2, Email: email, Password: hash, Role: models.RoleUser}, nil
			}
			return nil, nil
		}
		return repo
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)

		user, err := svc.Authenticate(context.Background(), "bob@example.com", "Sup3rSecret")
		require.NoError(t, err)
		assert.Equal(t, uint(2), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)

		_, err := svc.Authenticate(context.Background(), "bob@example.com", "wrong")
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)

		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever")
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("locks out after repeated failures even with correct password", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			_, err := svc.Authenticate(ctx, "bob@example.com", "wrong")
			assertAppErrorCode(t, err, "UNAUTHORIZED")
		}

		_, err := svc.Authenticate(ctx, "bob@example.com", "Sup3rSecret")
		assertAppErrorCode(t, err, "RATE_LIMITED")
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			_, _ = svc.Authenticate(ctx, "bob@example.com", "wrong")
		}
		_, err := svc.Authenticate(ctx, "bob@example.com", "Sup3rSecret")
		require.NoError(t, err)

		// Counter restarted, so a single new failure does not lock.
		_, err = svc.Authenticate(ctx, "bob@example.com", "wrong")
		assertAppErrorCode(t, err, "UNAUTHORIZED")
		_, err = svc.Authenticate(ctx, "bob@example.com", "Sup3rSecret")
		require.NoError(t, err)
	})

	t.Run("unknown email failures count toward the lockout", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(makeRepo(t, "Sup3rSecret"), newTestLimiter(), testJWTSecret)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			_, _ = svc.Authenticate(ctx, "ghost@example.com", "probe")
		}
		_, err := svc.Authenticate(ctx, "ghost@example.com", "probe")
		assertAppErrorCode(t, err, "RATE_LIMITED")
	})
}

func TestAuthService_IssueToken(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(noopUserRepo(), newTestLimiter(), testJWTSecret)
	user := &models.User{ID: 42, Username: "carol", Role: models.RoleAdmin}

	signed, err := svc.IssueToken(user)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("fixpoint-api"),
		jwt.WithAudience("fixpoint-client"))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "carol", claims["username"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.NotEmpty(t, claims["jti"])
}
