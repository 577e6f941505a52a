package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	envelopeVersion = "v1"
	envelopeParts   = 5

	saltLength = 64
	keyLength  = 32
	tagLength  = 16

	minSecretLength = 32
	// DefaultIterations is the PBKDF2 iteration count used when Config
	// leaves Iterations zero. Raising it is safe; envelopes do not embed
	// the count, so all values of one deployment share it.
	DefaultIterations = 100_000
)

var (
	// ErrSecretTooShort is returned by NewCodec when the master secret is
	// shorter than 32 bytes.
	ErrSecretTooShort = errors.New("encryption secret must be at least 32 bytes")
	// ErrDecodeFailed is returned when an envelope is structurally valid
	// but authentication or decryption fails. The plaintext is never
	// partially returned.
	ErrDecodeFailed = errors.New("envelope decode failed")
	// ErrMalformedEnvelope is returned when a value carries the envelope
	// version tag but its components cannot be recovered.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Config holds codec tuning parameters.
type Config struct {
	// MasterSecret keys every envelope. Required, >= 32 bytes.
	MasterSecret string
	// Iterations overrides the PBKDF2 iteration count. Zero means
	// DefaultIterations.
	Iterations int
}

// Codec encrypts and decrypts PII field values. Instances are immutable
// and safe for concurrent use.
type Codec struct {
	secret     []byte
	iterations int
}

// NewCodec validates the master secret and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.MasterSecret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	return &Codec{
		secret:     []byte(cfg.MasterSecret),
		iterations: iterations,
	}, nil
}

// Encode encrypts plaintext into a versioned envelope. The empty string
// encodes to itself: there is nothing to protect and an envelope would
// turn "no value" into a value.
func (c *Codec) Encode(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	enc := base64.StdEncoding
	return strings.Join([]string{
		envelopeVersion,
		enc.EncodeToString(salt),
		enc.EncodeToString(iv),
		enc.EncodeToString(tag),
		enc.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decode recovers the plaintext from an envelope produced by Encode.
// Values without the version tag are returned unchanged: historical
// records written before encryption was introduced are plaintext, and
// misclassifying them as corrupt envelopes would brick every legacy row.
func (c *Codec) Decode(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !IsEnvelope(value) {
		return value, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != envelopeParts {
		return "", ErrMalformedEnvelope
	}

	enc := base64.StdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil || len(salt) != saltLength {
		return "", ErrMalformedEnvelope
	}
	iv, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	tag, err := enc.DecodeString(parts[3])
	if err != nil || len(tag) != tagLength {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := enc.DecodeString(parts[4])
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	if len(iv) != aead.NonceSize() {
		return "", ErrMalformedEnvelope
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecodeFailed
	}

	return string(plaintext), nil
}

// IsEnvelope reports whether value carries the envelope version tag.
// Plaintext containing colons does not match: only the explicit tag
// marks a value as encrypted.
func IsEnvelope(value string) bool {
	return strings.HasPrefix(value, envelopeVersion+":")
}

// Hash returns the deterministic hex-encoded SHA-256 of s. It backs
// equality search over encrypted fields (the ciphertext itself is
// non-deterministic) and the server-side session rotation marker.
func Hash(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (c *Codec) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, c.iterations, keyLength, sha512.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
