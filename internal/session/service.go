package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/five82/swapp/internal/imaging"
	"github.com/five82/swapp/internal/market"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
)

// API is the part of the marketplace client the session needs.
type API interface {
	Login(ctx context.Context, creds market.Credentials) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg market.Registration) error
	FetchAccount(ctx context.Context) (*market.Account, error)
	FetchUser(ctx context.Context, username string) (*market.UserProfile, error)
	SetProfileImage(ctx context.Context, filename string, r io.Reader) (market.ImageAck, error)
}

// LoginResult describes what happened after a successful login request.
type LoginResult struct {
	Username string
	// NeedsProfilePicture is set for new accounts; the account is fetched
	// once the picture flow completes.
	NeedsProfilePicture bool
	Account             *market.Account
	User                *market.UserProfile
	// AccountErr and ProfileErr report follow-up fetch failures. The login
	// itself stays valid when they are set.
	AccountErr error
	ProfileErr error
}

// Service runs the authentication flows and publishes their outcome through
// the Store. It is the only writer of the Store besides tests.
type Service struct {
	store  *Store
	api    API
	logger *slog.Logger
}

// NewService wires a Service. A nil logger discards output.
func NewService(store *Store, api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, api: api, logger: logger}
}

// Store returns the store the service publishes to.
func (s *Service) Store() *Store {
	return s.store
}

// Login authenticates and, unless newAccount is set, fetches and publishes
// the account and public profile. A failed login publishes nothing.
func (s *Service) Login(ctx context.Context, creds market.Credentials, newAccount bool) (LoginResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	if err := s.api.Login(ctx, creds); err != nil {
		s.logger.Warn("login failed", "username", creds.Username, "error", err)
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	s.logger.Info("logged in", "username", creds.Username, "new_account", newAccount)
	s.store.PublishLoggedIn(true)

	result := LoginResult{Username: creds.Username}
	if newAccount {
		result.NeedsProfilePicture = true
		return result, nil
	}

	s.refresh(ctx, &result)
	return result, nil
}

// RefreshAccount refetches the account and public profile and publishes
// both. The account is published before the profile is requested.
func (s *Service) RefreshAccount(ctx context.Context) (*market.Account, *market.UserProfile, error) {
	if !s.store.IsLoggedIn() {
		return nil, nil, ErrNotLoggedIn
	}
	var result LoginResult
	s.refresh(ctx, &result)
	if result.AccountErr != nil {
		return nil, nil, result.AccountErr
	}
	return result.Account, result.User, result.ProfileErr
}

// refresh fills the account half of result.
func (s *Service) refresh(ctx context.Context, result *LoginResult) {
	account, err := s.api.FetchAccount(ctx)
	if err != nil {
		s.logger.Warn("fetch account failed", "error", err)
		result.AccountErr = fmt.Errorf("fetch account: %w", err)
		return
	}
	s.store.PublishAccount(*account)
	result.Account = account

	user, err := s.api.FetchUser(ctx, account.Username)
	if err != nil {
		s.logger.Warn("fetch public profile failed", "username", account.Username, "error", err)
		result.ProfileErr = fmt.Errorf("fetch public profile: %w", err)
		return
	}
	s.store.PublishUser(*user)
	result.User = user
}

// Logout closes the API session and clears every Session field. An already
// expired session still clears local state.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil && !errors.Is(err, market.ErrUnauthorized) {
		s.logger.Warn("logout failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out")
	s.store.PublishLoggedIn(false)
	s.store.PublishUser(market.UserProfile{})
	s.store.PublishAccount(market.Account{})
	return nil
}

// Register creates an account and logs into it as a new account, which
// requests the profile picture flow.
func (s *Service) Register(ctx context.Context, reg market.Registration) (LoginResult, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" || reg.Password == "" {
		return LoginResult{}, ErrMissingCredentials
	}
	if reg.PasswordConfirmation == "" {
		reg.PasswordConfirmation = reg.Password
	}
	if err := s.api.Register(ctx, reg); err != nil {
		s.logger.Warn("registration failed", "username", reg.Username, "error", err)
		return LoginResult{}, fmt.Errorf("register: %w", err)
	}
	return s.Login(ctx, market.Credentials{Username: reg.Username, Password: reg.Password}, true)
}

// CompleteProfilePicture uploads the picture chosen after registration and
// then publishes the freshly created account.
func (s *Service) CompleteProfilePicture(ctx context.Context, r io.Reader, name string) (LoginResult, error) {
	if !s.store.IsLoggedIn() {
		return LoginResult{}, ErrNotLoggedIn
	}
	if r != nil {
		prepared, err := imaging.Prepare(r, name, imaging.MaxProfileDimension)
		if err != nil {
			return LoginResult{}, fmt.Errorf("prepare picture: %w", err)
		}
		if _, err := s.api.SetProfileImage(ctx, prepared.Filename, prepared.Reader()); err != nil {
			s.logger.Warn("profile picture upload failed", "error", err)
			return LoginResult{}, fmt.Errorf("upload picture: %w", err)
		}
	}
	var result LoginResult
	s.refresh(ctx, &result)
	if result.Account != nil {
		result.Username = result.Account.Username
	}
	return result, nil
}
