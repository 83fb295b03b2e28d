package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"schoolaccounts/internal/core"
)

// MinSecretLen is the shortest HMAC secret accepted.
const MinSecretLen = 16

var ErrInvalidToken = errors.New("invalid token")

// claims is the token payload.
type claims struct {
	Name string    `json:"name"`
	Role core.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints HS256 bearer tokens for callers.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewIssuer(secret, issuer string) (*Issuer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretLen)
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for caller valid for ttl.
func (i *Issuer) Issue(caller core.Caller, ttl time.Duration) (string, error) {
	if caller.ID == "" {
		return "", errors.New("caller id is required")
	}
	if !caller.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", caller.Role)
	}
	now := i.now()
	c := claims{
		Name: caller.Name,
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(i.secret)
}

// Verifier turns bearer tokens into callers.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretLen)
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify validates signature, expiry and issuer and returns the caller.
func (v *Verifier) Verify(tokenString string) (*core.Caller, error) {
	var c claims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if !c.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return &core.Caller{ID: c.Subject, Name: c.Name, Role: c.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
