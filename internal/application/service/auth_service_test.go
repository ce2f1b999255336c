package service

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/qbo-connector/internal/config"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *utils.JWTManager) {
	t.Helper()
	hash, err := utils.HashPassword("s3cret-pass")
	require.NoError(t, err)
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(config.OperatorConfig{Username: "ops", PasswordHash: hash}, jwtManager), jwtManager
}

func TestLoginIssuesOperatorToken(t *testing.T) {
	svc, jwtManager := newAuthService(t)

	out, err := svc.Login(context.Background(), &LoginInput{Username: "ops", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "ops", out.Username)

	claims, err := jwtManager.ValidateAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)
	assert.Equal(t, "operator", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, &LoginInput{Username: "ops", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "someone", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestLoginWithoutConfiguredOperator(t *testing.T) {
	svc := NewAuthService(config.OperatorConfig{}, utils.NewJWTManager("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), &LoginInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}
