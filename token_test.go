package users_test

import (
	"strings"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenGenerator(t *testing.T) {
	gen := users.RandomTokenGenerator{}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := gen.MakeToken()
		require.NoError(t, err)
		require.NotEmpty(t, token)

		assert.Equal(t, strings.ToLower(token), token, "tokens are lowercase")
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true

		// 24 bytes base32 unpadded
		assert.Len(t, token, 39)
	}
}
