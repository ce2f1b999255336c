package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ConnectionStatus describes the stored QuickBooks connection
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	RealmID     string     `json:"realm_id,omitempty"`
	TokenExpiry *time.Time `json:"token_expiry,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

// ConnectionService manages the QuickBooks OAuth connection
type ConnectionService struct {
	oauth      TokenProvider
	settings   repository.SettingsRepository
	jwtManager *utils.JWTManager
	logger     *logrus.Logger
	now        func() time.Time
}

// NewConnectionService creates a new connection service
func NewConnectionService(oauth TokenProvider, settings repository.SettingsRepository, jwtManager *utils.JWTManager, logger *logrus.Logger) *ConnectionService {
	return &ConnectionService{
		oauth:      oauth,
		settings:   settings,
		jwtManager: jwtManager,
		logger:     logger,
		now:        time.Now,
	}
}

// ConnectURL returns the Intuit consent URL with a signed state
func (s *ConnectionService) ConnectURL() (string, error) {
	if !s.oauth.IsConfigured() {
		return "", apperror.NewBadRequestError("QuickBooks OAuth is not configured")
	}
	state, err := s.jwtManager.GenerateStateToken(utils.NewNonce())
	if err != nil {
		return "", err
	}
	return s.oauth.AuthURL(state), nil
}

// CallbackInput represents the OAuth redirect parameters
type CallbackInput struct {
	Code    string
	RealmID string
	State   string
}

// HandleCallback exchanges the authorization code and stores the tokens
// for the realm
func (s *ConnectionService) HandleCallback(ctx context.Context, input *CallbackInput) (*ConnectionStatus, error) {
	if input.Code == "" || input.RealmID == "" {
		return nil, apperror.NewBadRequestError("Missing code or realmId")
	}
	if _, err := s.jwtManager.ValidateStateToken(input.State); err != nil {
		return nil, apperror.NewBadRequestError("Invalid or expired state")
	}

	token, err := s.oauth.ExchangeCode(ctx, input.Code)
	if err != nil {
		s.logger.WithField("realm_id", input.RealmID).WithError(err).Warn("QuickBooks code exchange failed")
		return nil, apperror.NewAuthenticationError("QuickBooks authorization failed", err)
	}

	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	settings.RealmID = input.RealmID
	s.apply(settings, token)
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save QuickBooks settings: %w", err)
	}

	s.logger.WithField("realm_id", input.RealmID).Info("QuickBooks connected")
	return statusOf(settings), nil
}

// Refresh swaps the stored refresh token for a new token pair
func (s *ConnectionService) Refresh(ctx context.Context) (*ConnectionStatus, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load QuickBooks settings: %w", err)
	}
	if settings == nil || settings.RefreshToken == "" {
		return nil, apperror.ErrNotConnected
	}

	token, err := s.oauth.Refresh(ctx, settings.RefreshToken)
	if err != nil {
		return nil, apperror.NewAuthenticationError("QuickBooks token refresh failed", err)
	}
	s.apply(settings, token)
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save QuickBooks settings: %w", err)
	}

	s.logger.WithField("realm_id", settings.RealmID).Info("QuickBooks token refreshed")
	return statusOf(settings), nil
}

// Status returns the stored connection without touching Intuit
func (s *ConnectionService) Status(ctx context.Context) (*ConnectionStatus, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load QuickBooks settings: %w", err)
	}
	return statusOf(settings), nil
}

// RunRefreshLoop refreshes the token every interval until ctx ends. A
// failed refresh is logged and retried on the next tick.
func (s *ConnectionService) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.WithError(err).Warn("Scheduled QuickBooks token refresh skipped")
			}
		}
	}
}

func (s *ConnectionService) load(ctx context.Context) (*entity.QuickBooksSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load QuickBooks settings: %w", err)
	}
	if settings == nil {
		settings = &entity.QuickBooksSettings{ID: entity.QuickBooksSettingsID}
	}
	return settings, nil
}

func (s *ConnectionService) apply(settings *entity.QuickBooksSettings, token *oauth2.Token) {
	now := s.now()
	settings.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		settings.RefreshToken = token.RefreshToken
	}
	settings.TokenExpiry = token.Expiry
	settings.LastRefresh = &now
}

func statusOf(settings *entity.QuickBooksSettings) *ConnectionStatus {
	if !settings.IsConnected() {
		return &ConnectionStatus{}
	}
	status := &ConnectionStatus{
		Connected:   true,
		RealmID:     settings.RealmID,
		LastRefresh: settings.LastRefresh,
	}
	if !settings.TokenExpiry.IsZero() {
		expiry := settings.TokenExpiry
		status.TokenExpiry = &expiry
	}
	return status
}
