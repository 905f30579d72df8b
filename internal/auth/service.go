// Package auth issues and tracks user sessions: password sign-up and
// sign-in, Google sign-in, sign-out, and a push stream of session changes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/pkg/utils/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrNoSession          = errors.New("no active session")
	ErrOAuthDisabled      = errors.New("oauth provider is not configured")
	ErrOAuthProfile       = errors.New("could not read oauth profile")
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"

	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Session is an authenticated user as seen by the rest of the application.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=120"`
	// Role is staged for the new session by the caller.
	Role string `json:"role" validate:"omitempty,oneof=buyer seller"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OAuthConfig enables Google sign-in when ClientID is set.
type OAuthConfig struct {
	Config      *oauth2.Config
	UserInfoURL string
}

// GoogleOAuth builds the Google sign-in config. It returns nil when no
// client id is configured.
func GoogleOAuth(clientID, clientSecret, redirectURL string) *OAuthConfig {
	if clientID == "" {
		return nil
	}
	return &OAuthConfig{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: GoogleUserInfoURL,
	}
}

type Service struct {
	accounts backend.AccountStore
	signer   *jwt.Signer
	oauth    *OAuthConfig
	broker   *Broker
	revoked  *cache.Cache
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(accounts backend.AccountStore, signer *jwt.Signer, oauth *OAuthConfig, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		signer:   signer,
		oauth:    oauth,
		broker:   NewBroker(),
		revoked:  cache.New(signer.TTL(), 10*time.Minute),
		validate: validator.New(),
		logger:   logger,
	}
}

// Subscribe registers fn for session changes.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.broker.Subscribe(fn)
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.AccountRow{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Provider:     ProviderEmail,
	}
	if err := s.accounts.InsertAccount(ctx, account); err != nil {
		if errors.Is(err, backend.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("account created", zap.String("user_id", account.ID), zap.String("provider", ProviderEmail))
	return s.startSession(account)
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if account.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(account)
}

// OAuthURL is where the browser is redirected to sign in with Google. state
// comes back on the callback.
func (s *Service) OAuthURL(state string) (string, error) {
	if s.oauth == nil || s.oauth.Config == nil || s.oauth.Config.ClientID == "" {
		return "", ErrOAuthDisabled
	}
	return s.oauth.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

type googleProfile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeOAuth completes a Google sign-in, creating the account on first
// use.
func (s *Service) ExchangeOAuth(ctx context.Context, code string) (*Session, error) {
	if s.oauth == nil || s.oauth.Config == nil || s.oauth.Config.ClientID == "" {
		return nil, ErrOAuthDisabled
	}
	token, err := s.oauth.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		account = &model.AccountRow{
			ID:        uuid.NewString(),
			Email:     profile.Email,
			FullName:  profile.Name,
			AvatarURL: profile.Picture,
			Provider:  ProviderGoogle,
		}
		if err := s.accounts.InsertAccount(ctx, account); err != nil {
			return nil, err
		}
		s.logger.Info("account created", zap.String("user_id", account.ID), zap.String("provider", ProviderGoogle))
	case err != nil:
		return nil, err
	}

	return s.startSession(account)
}

func (s *Service) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	url := s.oauth.UserInfoURL
	if url == "" {
		url = GoogleUserInfoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrOAuthProfile, resp.StatusCode)
	}
	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthProfile, err)
	}
	profile.Email = normalizeEmail(profile.Email)
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: no email", ErrOAuthProfile)
	}
	return &profile, nil
}

func (s *Service) startSession(account *model.AccountRow) (*Session, error) {
	sessionID := uuid.NewString()
	token, err := s.signer.GenerateToken(account.ID, account.Email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	session := &Session{
		ID:          sessionID,
		UserID:      account.ID,
		Email:       account.Email,
		FullName:    account.FullName,
		AvatarURL:   account.AvatarURL,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.signer.TTL()),
	}

	s.logger.Info("signed in", zap.String("user_id", account.ID), zap.String("session_id", sessionID))
	s.broker.Publish(Event{Type: SignedIn, Session: session})
	return session, nil
}

// GetSession resolves an access token into its session.
func (s *Service) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}
	claims, err := s.signer.ValidateToken(accessToken)
	if err != nil {
		return nil, ErrNoSession
	}
	if _, revoked := s.revoked.Get(claims.SessionID()); revoked {
		return nil, ErrNoSession
	}

	account, err := s.accounts.GetAccount(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	session := &Session{
		ID:          claims.SessionID(),
		UserID:      account.ID,
		Email:       account.Email,
		FullName:    account.FullName,
		AvatarURL:   account.AvatarURL,
		AccessToken: accessToken,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// SignOut revokes the session of accessToken for the rest of its lifetime.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	session, err := s.GetSession(ctx, accessToken)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	s.revoked.Set(session.ID, struct{}{}, ttl)

	s.logger.Info("signed out", zap.String("user_id", session.UserID), zap.String("session_id", session.ID))
	s.broker.Publish(Event{Type: SignedOut, Session: session})
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
