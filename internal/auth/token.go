package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pizzeria-be/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = apperr.Unauthenticated("invalid or expired token")
	ErrWrongTokenType   = apperr.Unauthenticated("wrong token type")
	ErrMalformedSubject = apperr.Unauthenticated("invalid token subject")
)

// Claims is the payload written by the token service.
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access and refresh tokens.
// It keeps no server-side state: a token is valid until it expires.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the service reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(userID int64) (string, error) {
	return s.issue(userID, TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID int64) (string, error) {
	return s.issue(userID, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(userID int64, typ TokenType, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAccessToken accepts tokens typed "access" and legacy tokens that
// carry no type at all.
func (s *TokenService) VerifyAccessToken(tokenStr string) (int64, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return 0, err
	}

	if raw, present := claims["type"]; present {
		if typ, ok := raw.(string); !ok || TokenType(typ) != TokenTypeAccess {
			return 0, ErrWrongTokenType
		}
	}

	return subjectOf(claims)
}

// VerifyRefreshToken requires type == "refresh" exactly.
func (s *TokenService) VerifyRefreshToken(tokenStr string) (int64, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return 0, err
	}

	if typ, _ := claims["type"].(string); TokenType(typ) != TokenTypeRefresh {
		return 0, ErrWrongTokenType
	}

	return subjectOf(claims)
}

func (s *TokenService) parse(tokenStr string) (jwt.MapClaims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken.Wrap(err)
	}

	return claims, nil
}

func subjectOf(claims jwt.MapClaims) (int64, error) {
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || id <= 0 {
			return 0, ErrMalformedSubject
		}
		return id, nil
	case float64:
		// User ids are positive; anything at or past 2^63 would wrap on conversion.
		if sub != math.Trunc(sub) || sub < 1 || sub >= math.MaxInt64 {
			return 0, ErrMalformedSubject
		}
		return int64(sub), nil
	default:
		return 0, ErrMalformedSubject
	}
}

// ExtractAccessToken reads the bearer token from the Authorization header.
func ExtractAccessToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
