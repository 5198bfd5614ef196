package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, plaintext string) string {
	t.Helper()
	h, err := HashPassword(plaintext, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNormalizeHash(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "legacy", in: "$2y$10$abcdef", want: "$2b$10$abcdef"},
		{name: "legacy upper", in: "$2Y$10$abcdef", want: "$2b$10$abcdef"},
		{name: "modern b", in: "$2b$10$abcdef", want: "$2b$10$abcdef"},
		{name: "modern a", in: "$2a$10$abcdef", want: "$2a$10$abcdef"},
		{name: "other variant", in: "$2x$10$abcdef", want: "$2x$10$abcdef"},
		{name: "prefix only", in: "$2y$", want: "$2b$"},
		{name: "too short", in: "$2y", want: "$2y"},
		{name: "empty", in: "", want: ""},
		{name: "not a prefix", in: "x$2y$10$", want: "x$2y$10$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHash(tt.in))
		})
	}
}

func TestVerifyPassword_ModernHash(t *testing.T) {
	hash := mustHash(t, "correct-pw")

	assert.True(t, VerifyPassword("correct-pw", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPassword_LegacyHash(t *testing.T) {
	modern := mustHash(t, "correct-pw")
	require.True(t, strings.HasPrefix(modern, "$2a$"))

	legacy := "$2y$" + modern[4:]

	assert.True(t, VerifyPassword("correct-pw", legacy))
	assert.False(t, VerifyPassword("wrong", legacy))

	// equivalent hash under the $2b$ marker verifies the same plaintext
	assert.True(t, VerifyPassword("correct-pw", "$2b$"+modern[4:]))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{"", "plaintext", "$2y$", "$2b$10$short", "$9$10$abc"} {
		assert.False(t, VerifyPassword("correct-pw", hash), "hash %q", hash)
	}
}

func TestHashPassword_InvalidCost(t *testing.T) {
	h, err := HashPassword("pw", bcrypt.MaxCost+1)
	assert.Error(t, err)
	assert.Empty(t, h)
}
