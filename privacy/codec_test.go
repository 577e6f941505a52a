package privacy

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-master-secret-0123456789abcdef"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	// Low iteration count keeps the suite fast; the derivation path is
	// identical regardless of count.
	c, err := NewCodec(Config{MasterSecret: testSecret, Iterations: 1000})
	require.NoError(t, err)
	return c
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	_, err := NewCodec(Config{MasterSecret: "too-short"})
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, s := range []string{
		"alice@example.com",
		"Alice Liddell",
		"value:with:colons",
		"v1 but not a tag",
		"ünïcodé ✓",
		strings.Repeat("x", 4096),
	} {
		envelope, err := c.Encode(s)
		require.NoError(t, err)
		require.True(t, IsEnvelope(envelope))

		plaintext, err := c.Decode(envelope)
		require.NoError(t, err)
		assert.Equal(t, s, plaintext)
	}
}

func TestEncodeEmptyIsIdentity(t *testing.T) {
	c := newTestCodec(t)

	envelope, err := c.Encode("")
	require.NoError(t, err)
	assert.Equal(t, "", envelope)

	plaintext, err := c.Decode("")
	require.NoError(t, err)
	assert.Equal(t, "", plaintext)
}

func TestEncodeIsNonDeterministic(t *testing.T) {
	c := newTestCodec(t)

	first, err := c.Encode("alice@example.com")
	require.NoError(t, err)
	second, err := c.Encode("alice@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecodePassesThroughLegacyPlaintext(t *testing.T) {
	c := newTestCodec(t)

	for _, s := range []string{
		"plain@example.com",
		"no delimiter at all",
		"colon:but:no:version:tag",
	} {
		plaintext, err := c.Decode(s)
		require.NoError(t, err)
		assert.Equal(t, s, plaintext)
	}
}

func TestDecodeDetectsTampering(t *testing.T) {
	c := newTestCodec(t)

	envelope, err := c.Encode("alice@example.com")
	require.NoError(t, err)

	parts := strings.Split(envelope, ":")
	require.Len(t, parts, 5)

	// Flip one byte in the tag and in the ciphertext; both must fail
	// closed rather than return corrupted plaintext.
	for _, idx := range []int{3, 4} {
		raw, err := base64.StdEncoding.DecodeString(parts[idx])
		require.NoError(t, err)
		raw[0] ^= 0xff

		mutated := make([]string, len(parts))
		copy(mutated, parts)
		mutated[idx] = base64.StdEncoding.EncodeToString(raw)

		_, err = c.Decode(strings.Join(mutated, ":"))
		assert.ErrorIs(t, err, ErrDecodeFailed)
	}
}

func TestDecodeRejectsMalformedEnvelopes(t *testing.T) {
	c := newTestCodec(t)

	for _, v := range []string{
		"v1:only:three:parts",
		"v1:!!!:!!!:!!!:!!!",
		"v1:a:b:c:d:e",
	} {
		_, err := c.Decode(v)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	}
}

func TestDecodeWithWrongSecretFails(t *testing.T) {
	c := newTestCodec(t)

	envelope, err := c.Encode("alice@example.com")
	require.NoError(t, err)

	other, err := NewCodec(Config{
		MasterSecret: "another-master-secret-0123456789abcdef!!",
		Iterations:   1000,
	})
	require.NoError(t, err)

	_, err = other.Decode(envelope)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, Hash("alice@example.com"), Hash("alice@example.com"))
	assert.NotEqual(t, Hash("alice@example.com"), Hash("bob@example.com"))
	assert.Equal(t, "", Hash(""))
	assert.Len(t, Hash("alice@example.com"), 64)
}
