package utils

import (
	"testing"
	"time"

	"personal_finance/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *domain.User {
	return &domain.User{ID: 7, Username: "alice", Email: "alice@example.com", Role: domain.RolePremium}
}

func TestIssueAndParseAccess(t *testing.T) {
	ti := NewTokenIssuer(testSecret, "pf", "pf-clients", 60, 7)
	pair, err := ti.Issue(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, 5*time.Second)

	claims, err := ti.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, domain.RolePremium, claims.Role)
	assert.Equal(t, "pf", claims.Issuer)
}

func TestParseRefresh(t *testing.T) {
	ti := NewTokenIssuer(testSecret, "pf", "pf-clients", 60, 7)
	pair, err := ti.Issue(testUser())
	require.NoError(t, err)

	claims, err := ti.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.NotEmpty(t, claims.ID)

	_, err = ti.ParseRefresh(pair.AccessToken)
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))
}

func TestExpiredToken(t *testing.T) {
	ti := NewTokenIssuer(testSecret, "pf", "pf-clients", 1, 1)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := ti.Issue(testUser())
	require.NoError(t, err)

	ti.now = time.Now
	_, err = ti.ParseAccess(pair.AccessToken)
	assert.Equal(t, domain.KindTokenExpired, domain.KindOf(err))
}

func TestRejectsForeignTokens(t *testing.T) {
	ti := NewTokenIssuer(testSecret, "pf", "pf-clients", 60, 7)
	pair, err := ti.Issue(testUser())
	require.NoError(t, err)

	other := NewTokenIssuer("ffffffffffffffffffffffffffffffff", "pf", "pf-clients", 60, 7)
	_, err = other.ParseAccess(pair.AccessToken)
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))

	wrongAudience := NewTokenIssuer(testSecret, "pf", "someone-else", 60, 7)
	_, err = wrongAudience.ParseAccess(pair.AccessToken)
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))

	_, err = ti.ParseAccess("not-a-jwt")
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ti.ParseAccess(raw)
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	ti := NewTokenIssuer(testSecret, "pf", "pf-clients", 60, 7)
	pair, err := ti.Issue(testUser())
	require.NoError(t, err)

	_, err = ti.ParseAccess(pair.RefreshToken)
	assert.Equal(t, domain.KindTokenInvalid, domain.KindOf(err))
}
