package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)

		value, err := strconv.Atoi(otp)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 100000)
		assert.LessOrEqual(t, value, 999999)
	}
}

func TestGenerateRandomTokenUnique(t *testing.T) {
	first, err := GenerateRandomToken(32)
	require.NoError(t, err)
	second, err := GenerateRandomToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestHashMatches(t *testing.T) {
	digest := HashToken("123456")

	assert.NotEqual(t, "123456", digest)
	assert.True(t, HashMatches(digest, "123456"))
	assert.False(t, HashMatches(digest, "123457"))
	assert.False(t, HashMatches(digest, ""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@x.com", NormalizeEmail("  Ada@X.COM "))
}
