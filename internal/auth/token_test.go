package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "super-secret"
	testIssuer   = "musicfestival"
	testAudience = "musicfestival-clients"
)

func newTestService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, testIssuer, testAudience, ttl)
	require.NoError(t, err)
	return svc
}

// craftToken builds a token with arbitrary time bounds, bypassing Issue, so
// expiry behavior can be tested without waiting.
func craftToken(t *testing.T, secret, issuer, audience string, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		Role: "Dev",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ID:        "token-id",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIssueValidate_Success(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Hour)
	token, expiresAt, err := svc.Issue("alice", "Dev")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "Dev", claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestIssue_UniqueTokenID(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Hour)
	first, _, err := svc.Issue("alice", "")
	require.NoError(t, err)
	second, _, err := svc.Issue("alice", "")
	require.NoError(t, err)

	firstClaims, err := svc.Validate(first)
	require.NoError(t, err)
	secondClaims, err := svc.Validate(second)
	require.NoError(t, err)
	require.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestIssue_EmptySubject(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Hour)
	_, _, err := svc.Issue("", "Dev")
	require.Error(t, err)
}

func TestNewTokenService_MissingSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("", testIssuer, testAudience, time.Hour)
	require.Error(t, err)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	token := craftToken(t, "other-secret", testIssuer, testAudience, time.Now(), time.Now().Add(time.Hour))
	_, err := newTestService(t, time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongIssuer(t *testing.T) {
	t.Parallel()

	token := craftToken(t, testSecret, "someone-else", testAudience, time.Now(), time.Now().Add(time.Hour))
	_, err := newTestService(t, time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongAudience(t *testing.T) {
	t.Parallel()

	token := craftToken(t, testSecret, testIssuer, "other-clients", time.Now(), time.Now().Add(time.Hour))
	_, err := newTestService(t, time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_ExpiredBeyondLeeway(t *testing.T) {
	t.Parallel()

	token := craftToken(t, testSecret, testIssuer, testAudience, time.Now().Add(-time.Hour), time.Now().Add(-2*time.Minute))
	_, err := newTestService(t, time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_ExpiredWithinLeeway(t *testing.T) {
	t.Parallel()

	token := craftToken(t, testSecret, testIssuer, testAudience, time.Now().Add(-time.Hour), time.Now().Add(-30*time.Second))
	claims, err := newTestService(t, time.Hour).Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestValidate_IssuedInFuture(t *testing.T) {
	t.Parallel()

	token := craftToken(t, testSecret, testIssuer, testAudience, time.Now().Add(10*time.Minute), time.Now().Add(time.Hour))
	_, err := newTestService(t, time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService(t, time.Hour).Validate(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	t.Parallel()

	_, err := newTestService(t, time.Hour).Validate("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
