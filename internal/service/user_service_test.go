package service

import (
	"context"
	"testing"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/testutil"
	"literary-character-ai/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := jwt.NewService("secret", time.Hour)
	svc := NewUserService(db, tokens)
	ctx := context.Background()

	user, token, err := svc.CreateUser(ctx, &models.CreateUserRequest{
		Name:     "Watson",
		Email:    "John.Watson@Example.com",
		Password: "221b-baker",
	})
	require.NoError(t, err)
	assert.Equal(t, "john.watson@example.com", user.Email)
	assert.NotEqual(t, "221b-baker", user.Password)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, jwt.RoleUser, claims.Role)

	loggedIn, _, err := svc.Login(ctx, &models.LoginRequest{Email: "JOHN.WATSON@example.com", Password: "221b-baker"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.False(t, loggedIn.LastLogin.IsZero())
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, jwt.NewService("secret", time.Hour))
	ctx := context.Background()

	_, _, err := svc.CreateUser(ctx, &models.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.CreateUser(ctx, &models.CreateUserRequest{Name: "B", Email: "A@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, jwt.NewService("secret", time.Hour))
	ctx := context.Background()
	testutil.CreateUser(t, db, "reader@example.com")

	_, _, err := svc.Login(ctx, &models.LoginRequest{Email: "reader@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
