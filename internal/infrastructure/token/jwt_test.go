package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_RoundTrip(t *testing.T) {
	j, err := NewJWTIssuer("secret", 30*time.Minute)
	require.NoError(t, err)

	in := domain.Session{Username: "problem_user", Behavior: domain.BehaviorDegradedContent}
	tok, exp, err := j.Issue(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	out, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJWTIssuer_Expired(t *testing.T) {
	j, err := NewJWTIssuer("secret", time.Minute)
	require.NoError(t, err)
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return issued }

	tok, _, err := j.Issue(domain.Session{Username: "standard_user", Behavior: domain.BehaviorStandard})
	require.NoError(t, err)

	j.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = j.Parse(tok)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTIssuer_RejectsForeignSignature(t *testing.T) {
	a, err := NewJWTIssuer("secret-a", time.Minute)
	require.NoError(t, err)
	b, err := NewJWTIssuer("secret-b", time.Minute)
	require.NoError(t, err)

	tok, _, err := a.Issue(domain.Session{Username: "standard_user", Behavior: domain.BehaviorStandard})
	require.NoError(t, err)
	_, err = b.Parse(tok)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTIssuer_RejectsUnknownBehavior(t *testing.T) {
	j, err := NewJWTIssuer("secret", time.Minute)
	require.NoError(t, err)

	tok, _, err := j.Issue(domain.Session{Username: "standard_user", Behavior: "chaotic"})
	require.NoError(t, err)
	_, err = j.Parse(tok)
	require.Error(t, err)
}

func TestNewJWTIssuer_Validation(t *testing.T) {
	_, err := NewJWTIssuer("", time.Minute)
	assert.Error(t, err)
	_, err = NewJWTIssuer("s", 0)
	assert.Error(t, err)
}
