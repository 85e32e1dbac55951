package users

import (
	"crypto/rand"
	"strings"
	"time"

	b32 "encoding/base32"

	goerrors "github.com/goliatone/go-errors"
)

// maxTokenAttempts bounds regeneration when the store reports a
// uniqueness conflict on a freshly issued code.
const maxTokenAttempts = 3

// RandomTokenGenerator issues opaque tokens built from a millisecond
// timestamp prefix plus 18 random bytes, base32 encoded. The prefix
// keeps tokens roughly sortable; the random tail makes them
// unguessable.
type RandomTokenGenerator struct{}

// MakeToken implements TokenGenerator.
func (RandomTokenGenerator) MakeToken() (string, error) {
	t := time.Now()
	ms := uint64(t.Unix())*1000 + uint64(t.Nanosecond()/int(time.Millisecond))

	token := make([]byte, 24)
	token[0] = byte(ms >> 40)
	token[1] = byte(ms >> 32)
	token[2] = byte(ms >> 24)
	token[3] = byte(ms >> 16)
	token[4] = byte(ms >> 8)
	token[5] = byte(ms)

	if _, err := rand.Read(token[6:]); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token randomness")
	}

	tokenStr := b32.StdEncoding.WithPadding(b32.NoPadding).EncodeToString(token)
	return strings.ToLower(tokenStr), nil
}

var _ TokenGenerator = RandomTokenGenerator{}

// issueToken generates a token and persists it through assign+save,
// retrying generation while the store reports a conflict on the new
// code. The store's unique constraint is the arbiter; there is no
// check-then-write here.
func issueToken(generator TokenGenerator, assign func(token string) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := generator.MakeToken()
		if err != nil {
			return err
		}

		if err := assign(token); err != nil {
			if IsConflict(err) {
				lastErr = err
				continue
			}
			return err
		}

		return nil
	}

	return lastErr
}
