package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the platform credential payload. AppType and Permissions are
// optional: tokens issued before surface scoping was introduced carry neither.
type Claims struct {
	AppType     string   `json:"appType,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates credentials signed with a shared HMAC-SHA256 key.
// The key is held in memory only and should be at least 32 bytes.
type Verifier struct {
	signingKey []byte
}

// NewVerifier creates a Verifier for the given signing key.
func NewVerifier(signingKey []byte) (*Verifier, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Verifier{signingKey: signingKey}, nil
}

// Verify parses and validates a credential string. It enforces the HS256
// algorithm, the signature, the temporal claims and the presence of a subject.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		// Pinning the algorithm prevents signing-method confusion attacks.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// Issuer mints credentials with the same shared key. The platform's auth
// service is the production issuer; this implementation exists for tests and
// local development.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewIssuer creates an Issuer. A non-positive ttl defaults to one hour.
func NewIssuer(signingKey []byte, ttl time.Duration) (*Issuer, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{signingKey: signingKey, ttl: ttl}, nil
}

// Issue signs a credential for the given subject. appType may be empty for
// surface-agnostic tokens.
func (i *Issuer) Issue(subject, appType string, permissions []string) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := time.Now()
	claims := Claims{
		AppType:     appType,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
}
