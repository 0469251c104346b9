package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultAnonymousUserID = "local-offline-user"

var (
	ErrInvalidIdentityToken  = errors.New("invalid identity token")
	ErrIdentitySecretMissing = errors.New("identity secret missing")
)

type Claims struct {
	AppID string `json:"app_id,omitempty"`
	jwt.RegisteredClaims
}

// BuildToken issues the custom sign-in token accepted by ResolveUserID.
func BuildToken(secretKey []byte, userID string, appID string, ttl time.Duration, now time.Time) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrIdentitySecretMissing
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidIdentityToken)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := Claims{
		AppID: strings.TrimSpace(appID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ResolveUserID returns the subject of rawToken, or anonymousID when no token
// is configured.
func ResolveUserID(secretKey []byte, rawToken string, anonymousID string, now time.Time) (string, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		if anonymousID = strings.TrimSpace(anonymousID); anonymousID != "" {
			return anonymousID, nil
		}
		return DefaultAnonymousUserID, nil
	}
	if len(secretKey) == 0 {
		return "", ErrIdentitySecretMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !token.Valid {
		return "", ErrInvalidIdentityToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrInvalidIdentityToken
	}
	return subject, nil
}
