// Package cryptox implements the envelope cipher used to protect sensitive
// content fields at rest.
//
// Every value is sealed independently: a fresh random salt feeds PBKDF2-SHA256
// to derive a per-value AES-256 key from the configured secret, and the value
// is encrypted with AES-GCM under a fresh random IV. The stored form is
//
//	base64( salt[64] || iv[16] || tag[16] || ciphertext )
//
// Decryption fails closed: anything that is not a well-formed envelope for the
// configured key is handed back unchanged, which lets legacy plaintext rows
// coexist with encrypted ones.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/shared"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 64
	IVSize     = 16
	TagSize    = 16
	KeySize    = 32
	Iterations = 100_000

	headerSize = SaltSize + IVSize + TagSize
)

// missingKeyWarning is the reporter key for the "enabled without a key" warning.
const missingKeyWarning = "envelope-key-missing"

var errMalformedEnvelope = errors.New("malformed envelope")

// Reporter receives one-shot operational warnings.
type Reporter interface {
	WarnOnce(key, msg string, args ...any)
}

// randReader is the default entropy source for salts and IVs.
var randReader io.Reader = rand.Reader

// Options configures a Cipher.
type Options struct {
	Enabled bool
	Key     string
	// Rand overrides the entropy source. Nil means crypto/rand.
	Rand io.Reader
}

// Cipher seals and opens individual string values and records.
// A Cipher is safe for concurrent use.
type Cipher struct {
	enabled    bool
	secret     []byte
	iterations int
	reporter   Reporter
	rand       io.Reader
}

// NewCipher builds a Cipher. A nil reporter silences the missing key warning.
func NewCipher(opts Options, reporter Reporter) *Cipher {
	c := &Cipher{
		enabled:    opts.Enabled,
		iterations: Iterations,
		reporter:   reporter,
		rand:       opts.Rand,
	}
	if c.rand == nil {
		c.rand = randReader
	}
	if opts.Key != "" {
		c.secret = []byte(opts.Key)
	}
	return c
}

// Active reports whether values are actually transformed.
func (c *Cipher) Active() bool {
	return c != nil && c.enabled && len(c.secret) > 0
}

// Ready is Active, except that an enabled cipher without a key reports the
// missing key through the reporter. The reporter dedupes, so calling Ready at
// startup and sealing later still yields a single warning.
func (c *Cipher) Ready() bool {
	return c.active()
}

func (c *Cipher) active() bool {
	if c == nil || !c.enabled {
		return false
	}
	if len(c.secret) == 0 {
		if c.reporter != nil {
			c.reporter.WarnOnce(missingKeyWarning, "encryption is enabled but no key is configured; storing values as plaintext")
		}
		return false
	}
	return true
}

// EncryptValue seals plaintext into an envelope. Empty input and an inactive
// cipher return the input unchanged. Errors wrap common.ErrorCrypto.
func (c *Cipher) EncryptValue(plaintext string) (string, error) {
	if plaintext == "" || !c.active() {
		return plaintext, nil
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("%w: salt: %v", common.ErrorCrypto, err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("%w: iv: %v", common.ErrorCrypto, err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorCrypto, err)
	}

	// Seal appends the tag after the ciphertext; the envelope stores it first.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	out := make([]byte, 0, headerSize+len(ct))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptValue opens an envelope. It never fails: on any problem (inactive
// cipher, bad encoding, short input, wrong key, tampering) the input is
// returned as is.
func (c *Cipher) DecryptValue(value string) string {
	if value == "" || !c.active() {
		return value
	}

	env, err := ParseEnvelope(value)
	if err != nil {
		return value
	}

	gcm, err := c.aead(env.Salt)
	if err != nil {
		return value
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+TagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := gcm.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return value
	}
	return string(plaintext)
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, c.iterations, KeySize, sha256.New)
	defer shared.Wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// Envelope is the decoded form of a sealed value.
type Envelope struct {
	Salt       []byte
	IV         []byte
	Tag        []byte
	Ciphertext []byte
}

// ParseEnvelope decodes the base64 layout without attempting decryption.
func ParseEnvelope(value string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedEnvelope, err)
	}
	if len(raw) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", errMalformedEnvelope, len(raw))
	}
	return &Envelope{
		Salt:       raw[:SaltSize],
		IV:         raw[SaltSize : SaltSize+IVSize],
		Tag:        raw[SaltSize+IVSize : headerSize],
		Ciphertext: raw[headerSize:],
	}, nil
}
