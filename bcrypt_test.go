package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := accounts.HashPassword("follow-the-white-rabbit")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "follow-the-white-rabbit", hash)

	assert.NoError(t, accounts.ComparePasswordAndHash("follow-the-white-rabbit", hash))
	assert.ErrorIs(t, accounts.ComparePasswordAndHash("wrong-password", hash),
		accounts.ErrMismatchedHashAndPassword)
}

func TestHashPasswordRejectsEmptyString(t *testing.T) {
	_, err := accounts.HashPassword("")
	assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
}

func TestRandomPasswordHash(t *testing.T) {
	hash := accounts.RandomPasswordHash()
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, hash, accounts.RandomPasswordHash())
}

func TestPasswordHasherInterface(t *testing.T) {
	hasher := accounts.NewPasswordHasher()

	hash, err := hasher.HashPassword("follow-the-white-rabbit")
	require.NoError(t, err)
	assert.NoError(t, hasher.ComparePasswordAndHash("follow-the-white-rabbit", hash))
}
