package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64     `json:"userId"`
	Email  string    `json:"email"`
	Kind   tokenKind `json:"type"`
}

// tokenSigner issues and verifies HS256 tokens for one issuer.
type tokenSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func (t *tokenSigner) issue(user User, kind tokenKind, ttl time.Duration) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(ttl)
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, expiresAt.UTC(), nil
}

// verify parses raw and insists on the expected kind.
func (t *tokenSigner) verify(raw string, want tokenKind) (tokenClaims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", tok.Method.Alg())
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return tokenClaims{}, apperrors.Wrap("invalid_token", "token expired", err)
		}
		return tokenClaims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	if !parsed.Valid {
		return tokenClaims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.Kind != want {
		return tokenClaims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	return claims, nil
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
