package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	appErrors "github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	"github.com/renatoquispe/cinema-storefront-platform/internal/repositories/mocks"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type rateLimiterMock struct {
	mock.Mock
}

func (m *rateLimiterMock) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	args := m.Called(ctx, username)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

var testJWTKey = []byte("test-jwt-key")

func setupUserTest() (*mocks.UserRepository, *rateLimiterMock, service.UserService) {
	repo := new(mocks.UserRepository)
	limiter := new(rateLimiterMock)

	return repo, limiter, service.NewUserService(repo, limiter, testJWTKey)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	req := &models.RegisterRequest{
		Name:     "Juan Perez",
		Email:    "buyer@example.com",
		Password: "s3cret-password",
	}

	t.Run("Success - Password Stored Hashed", func(t *testing.T) {
		repo, _, userService := setupUserTest()

		repo.On("GetUserByEmail", ctx, req.Email).Return(nil, errors.New("no rows")).Once()
		repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

		user, err := userService.Register(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, req.Email, user.Email)
		assert.NotEqual(t, req.Password, user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)))
		repo.AssertExpectations(t)
	})

	t.Run("Failure - Duplicate Email", func(t *testing.T) {
		repo, _, userService := setupUserTest()

		repo.On("GetUserByEmail", ctx, req.Email).
			Return(&models.User{ID: uuid.New(), Email: req.Email}, nil).Once()

		user, err := userService.Register(ctx, req)

		require.Error(t, err)
		assert.Nil(t, user)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, appErr.Code)
		repo.AssertNotCalled(t, "CreateUser")
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		repo, _, userService := setupUserTest()

		repo.On("GetUserByEmail", ctx, req.Email).Return(nil, errors.New("no rows")).Once()
		repo.On("CreateUser", ctx, mock.Anything).Return(errors.New("pq: connection reset")).Once()

		user, err := userService.Register(ctx, req)

		require.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	password := "s3cret-password"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	storedUser := &models.User{
		ID:       uuid.New(),
		Email:    "buyer@example.com",
		Password: string(hashed),
	}

	req := &models.LoginRequest{Email: storedUser.Email, Password: password}

	t.Run("Success - Token Carries The User Claims", func(t *testing.T) {
		repo, limiter, userService := setupUserTest()

		limiter.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 4, 0, nil).Once()
		repo.On("GetUserByEmail", ctx, req.Email).Return(storedUser, nil).Once()

		resp, err := userService.Login(ctx, req)

		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.NotEmpty(t, resp.Token)
		assert.Positive(t, resp.ExpiresIn)

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (any, error) {
			return testJWTKey, nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, storedUser.ID, claims.UserID)
		assert.Equal(t, storedUser.Email, claims.Email)
	})

	t.Run("Failure - Wrong Password", func(t *testing.T) {
		repo, limiter, userService := setupUserTest()

		limiter.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 4, 0, nil).Once()
		repo.On("GetUserByEmail", ctx, req.Email).Return(storedUser, nil).Once()

		resp, err := userService.Login(ctx, &models.LoginRequest{Email: req.Email, Password: "wrong"})

		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Empty(t, resp.Token)
		assert.Equal(t, 4, resp.RemainingTries)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		repo, limiter, userService := setupUserTest()

		limiter.On("CheckLoginRateLimit", ctx, req.Email).Return(false, 0, 15, nil).Once()

		resp, err := userService.Login(ctx, req)

		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 15, resp.RetryAfter)
		repo.AssertNotCalled(t, "GetUserByEmail")
	})

	t.Run("Failure - Rate Limiter Error", func(t *testing.T) {
		_, limiter, userService := setupUserTest()

		limiter.On("CheckLoginRateLimit", ctx, req.Email).
			Return(false, 0, 0, errors.New("redis down")).Once()

		resp, err := userService.Login(ctx, req)

		require.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, _, userService := setupUserTest()

		user := &models.User{ID: uuid.New(), Email: "buyer@example.com"}
		repo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()

		got, err := userService.GetUserByID(ctx, user.ID)

		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		repo, _, userService := setupUserTest()

		id := uuid.New()
		repo.On("GetUserByID", ctx, id).Return(nil, errors.New("no rows")).Once()

		_, err := userService.GetUserByID(ctx, id)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}
