package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// dummyPassword is hashed once at startup so that logins for unknown
// emails spend the same bcrypt work as logins with a wrong password.
const dummyPassword = "taskboard-timing-equalizer"

// AuthService implements the auth orchestrator: role-aware login, OTP-gated
// registration, password reset, logout and refresh.
type AuthService struct {
	users       ports.CredentialStore
	admins      ports.CredentialStore
	tokens      ports.TokenService
	hasher      ports.PasswordHasher
	mailer      ports.Mailer
	resets      *ResetTokens
	frontendURL string
	log         zerolog.Logger
	now         func() time.Time
	dummyHash   string
}

func NewAuthService(
	users ports.CredentialStore,
	admins ports.CredentialStore,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	mailer ports.Mailer,
	resets *ResetTokens,
	frontendURL string,
	log zerolog.Logger,
) *AuthService {
	if resets == nil {
		resets = NewResetTokens(DefaultResetTokenTTL)
	}
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare dummy password hash")
	}
	return &AuthService{
		users:       users,
		admins:      admins,
		tokens:      tokens,
		hasher:      hasher,
		mailer:      mailer,
		resets:      resets,
		frontendURL: frontendURL,
		log:         log,
		now:         time.Now,
		dummyHash:   dummy,
	}
}

// storeFor dispatches a role string to the credential store of its class.
func (s *AuthService) storeFor(role string) (ports.CredentialStore, error) {
	switch role {
	case domain.RoleAdmin:
		return s.admins, nil
	case domain.RoleUser:
		return s.users, nil
	default:
		return nil, domain.ErrInvalidRole
	}
}

func (s *AuthService) Login(ctx context.Context, email, password, role string) (*domain.LoginResult, error) {
	store, err := s.storeFor(role)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	p, err := store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(fmt.Errorf("login: %w", err))
	}

	if p.PasswordHash == "" {
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, domain.ErrInvalidCredentials
	}
	if s.hasher.Compare(p.PasswordHash, password) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if p.IsBlocked {
		return nil, domain.ErrAccountBlocked
	}

	payload := domain.TokenPayload{ID: p.ID, Role: role}
	accessToken, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("login: sign access token: %w", err))
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("login: sign refresh token: %w", err))
	}

	now := s.now().UTC()
	if err := store.AddRefreshToken(ctx, p.ID, refreshToken, now); err != nil {
		return nil, domain.Internal(fmt.Errorf("login: save session: %w", err))
	}
	p.LastLogin = &now

	s.log.Info().Str("principal_id", p.ID).Str("role", role).Msg("login succeeded")

	return &domain.LoginResult{
		User:         p.View(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Register creates a user. Callers are expected to have verified the email
// via OTP first; Register does not re-check it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PrincipalView, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.ErrMissingFields
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	authType := in.AuthType
	if authType == "" {
		authType = domain.AuthTypeLocal
	}
	if authType != domain.AuthTypeLocal && authType != domain.AuthTypeGoogle {
		return nil, domain.NewError(domain.KindBadRequest, "unsupported auth type")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case errors.Is(err, domain.ErrUserNotFound):
	default:
		return nil, domain.Internal(fmt.Errorf("register: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			return nil, domain.ErrPasswordTooLong
		}
		return nil, domain.Internal(fmt.Errorf("register: hash password: %w", err))
	}

	profilePic := in.ProfilePic
	if profilePic == "" {
		profilePic = domain.DefaultProfilePic
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.Principal{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		ProfilePic:    profilePic,
		Role:          domain.RoleUser,
		AuthType:      authType,
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, domain.Internal(fmt.Errorf("register: %w", err))
	}

	s.log.Info().Str("principal_id", created.ID).Msg("user registered")
	return created.View(), nil
}

func (s *AuthService) ForgetPassword(ctx context.Context, email string) (*domain.PrincipalView, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}

	p, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.Internal(fmt.Errorf("forget password: %w", err))
	}

	token, hash, expiry, err := s.resets.Issue(s.now().UTC())
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("forget password: issue token: %w", err))
	}
	if err := s.users.SetResetToken(ctx, p.ID, hash, expiry); err != nil {
		return nil, domain.Internal(fmt.Errorf("forget password: store token: %w", err))
	}
	p.ResetTokenHash = hash
	p.ResetTokenExpiry = &expiry

	if err := s.mailer.SendPasswordReset(ctx, p.Email, s.resetLink(p.Email, token), s.resets.TTL()); err != nil {
		s.log.Warn().Err(err).Str("principal_id", p.ID).Msg("password reset email not delivered")
	}

	s.log.Info().Str("principal_id", p.ID).Msg("password reset requested")
	return p.View(), nil
}

// ResetPassword is an out-of-band recovery: it needs the mailed token, not
// the old password. The token is single-use.
func (s *AuthService) ResetPassword(ctx context.Context, email, password, token string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" || token == "" {
		return domain.ErrMissingFields
	}
	if len(password) > MaxPasswordBytes {
		return domain.ErrPasswordTooLong
	}

	p, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return domain.Internal(fmt.Errorf("reset password: %w", err))
	}

	if err := s.resets.Validate(p, token, s.now()); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			return domain.ErrPasswordTooLong
		}
		return domain.Internal(fmt.Errorf("reset password: hash password: %w", err))
	}

	if err := s.users.CompletePasswordReset(ctx, p.ID, p.ResetTokenHash, hash); err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return err
		}
		return domain.Internal(fmt.Errorf("reset password: %w", err))
	}

	s.log.Info().Str("principal_id", p.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string, identity domain.TokenPayload) *domain.PrincipalView {
	store, err := s.storeFor(identity.Role)
	if err != nil {
		s.log.Warn().Str("role", identity.Role).Msg("logout with unknown role")
		return nil
	}

	p, err := store.RemoveRefreshToken(ctx, identity.ID, refreshToken)
	if err != nil {
		s.log.Warn().Err(err).Str("principal_id", identity.ID).Msg("logout failed")
		return nil
	}
	if p != nil {
		s.log.Info().Str("principal_id", p.ID).Str("role", identity.Role).Msg("logged out")
	}
	return p.View()
}

// RefreshAccessToken mints a new access token for a refresh token that is
// validly signed, unexpired, still in its principal's session set and whose
// principal is not blocked.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh rejected")
		return "", false
	}

	store, err := s.storeFor(payload.Role)
	if err != nil {
		return "", false
	}

	p, err := store.FindByID(ctx, payload.ID)
	if err != nil {
		s.log.Debug().Err(err).Str("principal_id", payload.ID).Msg("refresh rejected")
		return "", false
	}
	if !p.HasRefreshToken(refreshToken) {
		s.log.Debug().Str("principal_id", payload.ID).Msg("refresh rejected: session revoked")
		return "", false
	}
	if p.IsBlocked {
		return "", false
	}

	accessToken, err := s.tokens.GenerateAccessToken(domain.TokenPayload{ID: payload.ID, Role: payload.Role})
	if err != nil {
		s.log.Error().Err(err).Msg("sign access token")
		return "", false
	}
	return accessToken, true
}

func (s *AuthService) CurrentUser(ctx context.Context, identity domain.TokenPayload) (*domain.PrincipalView, error) {
	store, err := s.storeFor(identity.Role)
	if err != nil {
		return nil, err
	}

	p, err := store.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, domain.Internal(fmt.Errorf("current user: %w", err))
	}
	return p.View(), nil
}

// SetBlocked blocks or unblocks a user. Blocking revokes every session.
func (s *AuthService) SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error) {
	if userID == "" {
		return nil, domain.ErrMissingFields
	}

	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.Internal(fmt.Errorf("set blocked: %w", err))
	}

	p, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.Internal(fmt.Errorf("set blocked: %w", err))
	}

	s.log.Info().Str("principal_id", userID).Bool("blocked", blocked).Msg("account status changed")
	return p.View(), nil
}

func (s *AuthService) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(s.frontendURL, "/") + "/auth/reset-password?" + q.Encode()
}
