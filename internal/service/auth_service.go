package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blockparty/server/internal/config"
	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
	"blockparty/server/pkg/crypto"
	jwtpkg "blockparty/server/pkg/jwt"
)

const (
	oauth2StateTTL       = 10 * time.Minute
	oauth2StatePrefix    = "oauth2_state:"
	refreshTokenPrefix   = "refresh_jti:"
	providerGoogle       = "google"
	providerGitHub       = "github"
	anonymousProfileName = "Anonymous"
)

// TokenSet is the session material returned after a completed login.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// profile is what we need from the identity provider: a verified address
// and something to call the person.
type profile struct {
	Email string
	Name  string
}

type AuthService interface {
	// AuthorizationURL starts the login flow: stores a CSRF state token
	// and returns the provider's authorization endpoint URL.
	AuthorizationURL(ctx context.Context, provider string) (string, error)
	// HandleCallback completes the login flow: validates state, exchanges
	// the code, fetches the profile, upserts the user, and mints tokens.
	HandleCallback(ctx context.Context, provider, code, state string) (*TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	cfg        config.OAuth2Config
	userRepo   repository.UserRepository
	stateStore repository.StateStore
	jwtManager *jwtpkg.Manager
	httpClient *http.Client
}

func NewAuthService(
	cfg config.OAuth2Config,
	userRepo repository.UserRepository,
	stateStore repository.StateStore,
	jwtManager *jwtpkg.Manager,
) AuthService {
	return &authService{
		cfg:        cfg,
		userRepo:   userRepo,
		stateStore: stateStore,
		jwtManager: jwtManager,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *authService) providerConfig(provider string) (*config.OAuth2ProviderConfig, error) {
	switch provider {
	case providerGoogle:
		if s.cfg.Google.ClientID == "" {
			return nil, ErrOAuth2ProviderNotConfigured
		}
		return &s.cfg.Google, nil
	case providerGitHub:
		if s.cfg.GitHub.ClientID == "" {
			return nil, ErrOAuth2ProviderNotConfigured
		}
		return &s.cfg.GitHub, nil
	default:
		return nil, fmt.Errorf("%w: unknown oauth2 provider %q", ErrOAuth2ProviderNotConfigured, provider)
	}
}

func authEndpoint(provider string) string {
	switch provider {
	case providerGoogle:
		return "https://accounts.google.com/o/oauth2/v2/auth"
	case providerGitHub:
		return "https://github.com/login/oauth/authorize"
	}
	return ""
}

func tokenEndpoint(provider string) string {
	switch provider {
	case providerGoogle:
		return "https://oauth2.googleapis.com/token"
	case providerGitHub:
		return "https://github.com/login/oauth/access_token"
	}
	return ""
}

func (s *authService) AuthorizationURL(ctx context.Context, provider string) (string, error) {
	cfg, err := s.providerConfig(provider)
	if err != nil {
		return "", err
	}

	stateToken, err := crypto.GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.stateStore.Set(ctx, oauth2StatePrefix+stateToken, []byte(provider), oauth2StateTTL); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	params := url.Values{
		"client_id":     {cfg.ClientID},
		"redirect_uri":  {cfg.RedirectURL},
		"scope":         {strings.Join(cfg.Scopes, " ")},
		"state":         {stateToken},
		"response_type": {"code"},
	}
	return authEndpoint(provider) + "?" + params.Encode(), nil
}

func (s *authService) HandleCallback(ctx context.Context, provider, code, state string) (*TokenSet, error) {
	if err := s.consumeState(ctx, state, provider); err != nil {
		return nil, err
	}

	cfg, err := s.providerConfig(provider)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.exchangeCode(ctx, provider, code, cfg)
	if err != nil {
		return nil, err
	}

	prof, err := s.fetchProfile(ctx, provider, accessToken)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: prof.Email, Name: prof.Name}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.issueTokenSet(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	claims, err := s.jwtManager.Validate(refreshToken)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	key := refreshTokenPrefix + claims.ID
	exists, err := s.stateStore.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check refresh token: %w", err)
	}
	if !exists {
		return nil, ErrRefreshTokenInvalid
	}
	// Rotation: the presented token is spent whether or not reissue succeeds.
	_ = s.stateStore.Delete(ctx, key)

	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	return s.issueTokenSet(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.Validate(refreshToken)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeRefresh {
		// Nothing to revoke.
		return nil
	}
	return s.stateStore.Delete(ctx, refreshTokenPrefix+claims.ID)
}

func (s *authService) issueTokenSet(ctx context.Context, user *model.User) (*TokenSet, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, refreshClaims, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.stateStore.Set(ctx, refreshTokenPrefix+refreshClaims.ID, []byte(user.ID.String()), s.jwtManager.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) consumeState(ctx context.Context, state, expectedProvider string) error {
	data, err := s.stateStore.Get(ctx, oauth2StatePrefix+state)
	if err != nil || data == nil {
		return ErrOAuth2InvalidState
	}
	_ = s.stateStore.Delete(ctx, oauth2StatePrefix+state)

	if string(data) != expectedProvider {
		return ErrOAuth2InvalidState
	}
	return nil
}

func (s *authService) exchangeCode(ctx context.Context, provider, code string, cfg *config.OAuth2ProviderConfig) (string, error) {
	params := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {cfg.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint(provider), strings.NewReader(params.Encode()))
	if err != nil {
		return "", ErrOAuth2TokenExchange
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", ErrOAuth2TokenExchange
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrOAuth2TokenExchange
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", ErrOAuth2TokenExchange
	}
	if tokenResp.Error != "" || tokenResp.AccessToken == "" {
		return "", ErrOAuth2TokenExchange
	}
	return tokenResp.AccessToken, nil
}

func (s *authService) fetchProfile(ctx context.Context, provider, accessToken string) (*profile, error) {
	switch provider {
	case providerGoogle:
		return s.fetchGoogleProfile(ctx, accessToken)
	case providerGitHub:
		return s.fetchGitHubProfile(ctx, accessToken)
	}
	return nil, ErrOAuth2UserInfo
}

func (s *authService) providerGet(ctx context.Context, endpoint, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ErrOAuth2UserInfo
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ErrOAuth2UserInfo
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrOAuth2UserInfo
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ErrOAuth2UserInfo
	}
	return nil
}

func (s *authService) fetchGoogleProfile(ctx context.Context, accessToken string) (*profile, error) {
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := s.providerGet(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken, &info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, ErrOAuth2UserInfo
	}
	if info.Name == "" {
		info.Name = anonymousProfileName
	}
	return &profile{Email: info.Email, Name: info.Name}, nil
}

func (s *authService) fetchGitHubProfile(ctx context.Context, accessToken string) (*profile, error) {
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := s.providerGet(ctx, "https://api.github.com/user", accessToken, &info); err != nil {
		return nil, err
	}

	// GitHub omits the email when it is private; the emails endpoint still
	// lists it for the granted user:email scope.
	if info.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := s.providerGet(ctx, "https://api.github.com/user/emails", accessToken, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				info.Email = e.Email
				break
			}
		}
	}
	if info.Email == "" {
		return nil, ErrOAuth2UserInfo
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	if name == "" {
		name = anonymousProfileName
	}
	return &profile{Email: info.Email, Name: name}, nil
}

var _ AuthService = (*authService)(nil)
