package service

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/config"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/utils"
)

// OperatorRole is the role carried in every operator access token
const OperatorRole = "operator"

// AuthService handles operator authentication
type AuthService struct {
	operator   config.OperatorConfig
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(operator config.OperatorConfig, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		operator:   operator,
		jwtManager: jwtManager,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	Username    string
	AccessToken string
}

// Login checks the operator credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	if s.operator.PasswordHash == "" || input.Username != s.operator.Username {
		return nil, apperror.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(input.Password, s.operator.PasswordHash) {
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateAccessToken(input.Username, input.Username, OperatorRole)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Username: input.Username, AccessToken: token}, nil
}
