package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// AccessTokenTTL and RefreshTokenTTL bound the two token kinds
	// issued by IssuePair.
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when an access token is presented
// where a refresh token is required, or the other way around.
var ErrWrongTokenType = errors.New("wrong token type")

// Claims carried by both token kinds. Type is "refresh" on refresh
// tokens and empty on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// TokenService signs and verifies the HS256 bearer tokens used by the
// HTTP layer.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  AccessTokenTTL,
		refreshTTL: RefreshTokenTTL,
		now:        time.Now,
	}
}

// WithTTL overrides the token lifetimes. Zero values keep the
// defaults.
func (s *TokenService) WithTTL(access, refresh time.Duration) *TokenService {
	if access > 0 {
		s.accessTTL = access
	}
	if refresh > 0 {
		s.refreshTTL = refresh
	}
	return s
}

// IssuePair mints an access/refresh pair for userID.
func (s *TokenService) IssuePair(userID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	accessExpiresAt := now.Add(s.accessTTL)
	refreshExpiresAt := now.Add(s.refreshTTL)

	access, err := s.sign(userID, now, accessExpiresAt, "")
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, now, refreshExpiresAt, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *TokenService) sign(userID uuid.UUID, now, expiresAt time.Time, tokenType string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: tokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns the user it was
// issued for. Refresh tokens are rejected with ErrWrongTokenType.
func (s *TokenService) VerifyAccess(token string) (uuid.UUID, error) {
	claims, err := s.parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Type == tokenTypeRefresh {
		return uuid.Nil, ErrWrongTokenType
	}
	return s.subject(claims)
}

// VerifyRefresh validates a refresh token and returns the user it was
// issued for. Access tokens are rejected with ErrWrongTokenType.
func (s *TokenService) VerifyRefresh(token string) (uuid.UUID, error) {
	claims, err := s.parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Type != tokenTypeRefresh {
		return uuid.Nil, ErrWrongTokenType
	}
	return s.subject(claims)
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *TokenService) subject(claims *Claims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "parsing token subject")
	}
	return id, nil
}
