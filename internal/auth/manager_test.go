package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"swiftdrop/internal/auth"
	"swiftdrop/internal/domain"
)

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	m := auth.NewManager("s3cret", time.Hour)

	tok, err := m.Generate(42, domain.RoleDriver)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, domain.RoleDriver, claims.Role)
	require.Equal(t, domain.Actor{UserID: 42, Role: domain.RoleDriver}, claims.Actor())
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := auth.NewManager("s3cret", time.Hour).Generate(42, domain.RoleDriver)
	require.NoError(t, err)

	_, err = auth.NewManager("other", time.Hour).Parse(tok)
	require.Error(t, err)
}

func TestParse_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := auth.NewManager("s3cret", -time.Minute)

	tok, err := m.Generate(42, domain.RoleCustomer)
	require.NoError(t, err)

	_, err = m.Parse(tok)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_RejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: 42, Role: domain.RoleAdmin})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewManager("s3cret", time.Hour).Parse(tok)
	require.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	t.Parallel()

	_, err := auth.NewManager("s3cret", time.Hour).Parse("not.a.token")
	require.Error(t, err)
}
