package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultTokenIssuer     = "taskboard"
)

var errSameSecrets = errors.New("access and refresh token secrets must differ")

// TokenConfig configures JWTTokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type tokenClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService issues HS256 access and refresh tokens. Each class has its
// own secret, so holding one secret never lets you forge the other class.
type JWTTokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewJWTTokenService(cfg TokenConfig) (*JWTTokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errSameSecrets
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &JWTTokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// RefreshTTL is the lifetime of refresh tokens, used for the cookie max-age.
func (s *JWTTokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *JWTTokenService) GenerateAccessToken(payload domain.TokenPayload) (string, error) {
	return s.sign(payload, s.accessSecret, s.accessTTL)
}

func (s *JWTTokenService) GenerateRefreshToken(payload domain.TokenPayload) (string, error) {
	return s.sign(payload, s.refreshSecret, s.refreshTTL)
}

func (s *JWTTokenService) VerifyAccessToken(token string) (domain.TokenPayload, error) {
	return s.verify(token, s.accessSecret)
}

func (s *JWTTokenService) VerifyRefreshToken(token string) (domain.TokenPayload, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *JWTTokenService) sign(payload domain.TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: payload.ID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// jti keeps two tokens minted in the same second distinct.
			ID: uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (s *JWTTokenService) verify(token string, secret []byte) (domain.TokenPayload, error) {
	if token == "" {
		return domain.TokenPayload{}, domain.ErrInvalidToken
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenPayload{}, domain.ErrTokenExpired
		}
		return domain.TokenPayload{}, domain.ErrInvalidToken
	}
	if !parsed.Valid || claims.UserID == "" || claims.Role == "" {
		return domain.TokenPayload{}, domain.ErrInvalidToken
	}

	return domain.TokenPayload{ID: claims.UserID, Role: claims.Role}, nil
}
