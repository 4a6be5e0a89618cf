package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashWithCost("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, Verify("correct horse", hash))
	assert.False(t, Verify("battery staple", hash))
	assert.False(t, Verify("correct horse", "not-a-hash"))
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashWithCost("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashWithCost("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("short"))
	assert.True(t, ValidatePassword("longenough"))
}
