package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolaccounts/internal/core"
)

const testSecret = "0123456789abcdef-test"

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer(testSecret, "school-accounts")
	require.NoError(t, err)
	ver, err := NewVerifier(testSecret, "school-accounts")
	require.NoError(t, err)

	token, err := iss.Issue(core.Caller{ID: "u1", Name: "Sita", Role: core.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	caller, err := ver.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &core.Caller{ID: "u1", Name: "Sita", Role: core.RoleAdmin}, caller)
}

func TestVerifyRejects(t *testing.T) {
	iss, _ := NewIssuer(testSecret, "school-accounts")
	ver, _ := NewVerifier(testSecret, "school-accounts")

	expired := func() string {
		i, _ := NewIssuer(testSecret, "school-accounts")
		i.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, _ := i.Issue(core.Caller{ID: "u1", Role: core.RoleViewer}, time.Hour)
		return tok
	}()

	otherIssuer := func() string {
		i, _ := NewIssuer(testSecret, "someone-else")
		tok, _ := i.Issue(core.Caller{ID: "u1", Role: core.RoleViewer}, time.Hour)
		return tok
	}()

	wrongSecret := func() string {
		i, _ := NewIssuer("another-secret-of-length", "school-accounts")
		tok, _ := i.Issue(core.Caller{ID: "u1", Role: core.RoleViewer}, time.Hour)
		return tok
	}()

	badRole := func() string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "u1",
			"role": "ROOT",
			"iss":  "school-accounts",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		s, _ := tok.SignedString([]byte(testSecret))
		return s
	}()

	noneAlg := func() string {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": "ADMIN"})
		s, _ := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		return s
	}()

	valid, _ := iss.Issue(core.Caller{ID: "u1", Role: core.RoleViewer}, time.Hour)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"other issuer": otherIssuer,
		"wrong secret": wrongSecret,
		"bad role":     badRole,
		"none alg":     noneAlg,
		"tampered":     valid + "x",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ver.Verify(tok)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestSecretLength(t *testing.T) {
	_, err := NewIssuer("short", "x")
	assert.Error(t, err)
	_, err = NewVerifier("short", "x")
	assert.Error(t, err)
}

func TestIssueRejectsBadCaller(t *testing.T) {
	iss, _ := NewIssuer(testSecret, "")
	_, err := iss.Issue(core.Caller{Role: core.RoleAdmin}, time.Hour)
	assert.Error(t, err)
	_, err = iss.Issue(core.Caller{ID: "u1", Role: "ROOT"}, time.Hour)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b", "Bearer "} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}
