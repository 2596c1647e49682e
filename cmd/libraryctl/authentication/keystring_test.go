package authentication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokensRoundTripThroughKeyring(t *testing.T) {
	keyring.MockInit()

	_, err := GetTokens()
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	creds := &StoredCredentials{AccessToken: "a", RefreshToken: "r", Email: "staff@library.test", Role: "admin", ExpiresAt: 1700000000}
	require.NoError(t, StoreTokens(creds))

	got, err := GetTokens()
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, DeleteTokens())
	_, err = GetTokens()
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.True(t, (&StoredCredentials{ExpiresAt: now.Unix()}).Expired(now))
	assert.False(t, (&StoredCredentials{ExpiresAt: now.Unix() + 60}).Expired(now))
	assert.False(t, (&StoredCredentials{}).Expired(now), "unknown expiry is left to the server")
}
