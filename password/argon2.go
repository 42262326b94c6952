package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"

	// DefaultMaxPasswordBytes caps plaintext length so a single request cannot
	// pin a CPU inside the key derivation.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrEmptyPassword is returned by Hash for a zero-length plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordTooLong is returned by Hash when the plaintext exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// Config holds the Argon2id cost parameters.
//
// Config values are fixed at construction; changing them only affects hashes
// produced afterwards.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// DefaultConfig returns the production cost parameters.
func DefaultConfig() Config {
	return Config{
		Memory:           64 * 1024,
		Time:             3,
		Parallelism:      2,
		SaltLength:       16,
		KeyLength:        32,
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// Argon2 is a stateless hasher safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and returns a hasher.
//
// NewArgon2 returns an error when any cost parameter is below the accepted minimum.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives a salted Argon2id hash of password and returns it as a PHC string.
//
// Each call draws a fresh random salt, so hashing the same plaintext twice yields
// different strings that both verify. The plaintext bytes are used exactly as
// provided; trimming is the caller's decision.
func (a *Argon2) Hash(password string) (string, error) {
	switch {
	case password == "":
		return "", ErrEmptyPassword
	case len(password) > a.config.MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
	}
	if _, err := io.ReadFull(rand.Reader, p.salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	p.key = p.derive(password, a.config.KeyLength)
	return p.String(), nil
}

// Verify reports whether password matches encodedHash.
//
// The comparison runs in constant time with respect to the derived key. A
// malformed, empty or foreign hash never matches and never produces an error,
// so a store row without a password behaves exactly like a wrong password.
func (a *Argon2) Verify(password string, encodedHash string) bool {
	if len(password) > a.config.MaxPasswordBytes {
		return false
	}
	p, err := decodePHC(encodedHash)
	if err != nil {
		return false
	}
	computed := p.derive(password, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

// errMalformedHash covers every decode failure. Callers only ever see a
// false from Verify.
var errMalformedHash = errors.New("malformed argon2id hash")

// phc is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, keyLen)
}

func (p phc) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.memory, p.time, p.parallelism,
		enc.EncodeToString(p.salt), enc.EncodeToString(p.key))
}

func decodePHC(encoded string) (phc, error) {
	var p phc

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != algorithmID {
		return p, errMalformedHash
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, errMalformedHash
	}
	if err := p.decodeParams(fields[3]); err != nil {
		return p, err
	}

	var err error
	enc := base64.RawStdEncoding
	if p.salt, err = enc.DecodeString(fields[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return p, errMalformedHash
	}
	if p.key, err = enc.DecodeString(fields[5]); err != nil || len(p.key) < int(minKeyLength) {
		return p, errMalformedHash
	}
	return p, nil
}

// decodeParams reads exactly m, t and p, each once, in any order.
func (p *phc) decodeParams(field string) error {
	pairs := strings.Split(field, ",")
	if len(pairs) != 3 {
		return errMalformedHash
	}

	seen := map[string]bool{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || seen[key] {
			return errMalformedHash
		}
		seen[key] = true

		bits := 32
		if key == "p" {
			bits = 8
		}
		v, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return errMalformedHash
		}

		switch key {
		case "m":
			if v < uint64(minMemoryKB) {
				return errMalformedHash
			}
			p.memory = uint32(v)
		case "t":
			if v < uint64(minTimeCost) {
				return errMalformedHash
			}
			p.time = uint32(v)
		case "p":
			if v < uint64(minParallelism) {
				return errMalformedHash
			}
			p.parallelism = uint8(v)
		default:
			return errMalformedHash
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	var problems []string
	if cfg.Memory < minMemoryKB {
		problems = append(problems, fmt.Sprintf("memory must be >= %d KB", minMemoryKB))
	}
	if cfg.Time < minTimeCost {
		problems = append(problems, "time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		problems = append(problems, "parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		problems = append(problems, fmt.Sprintf("salt length must be >= %d", minSaltLength))
	}
	if cfg.KeyLength < minKeyLength {
		problems = append(problems, fmt.Sprintf("key length must be >= %d", minKeyLength))
	}
	if cfg.MaxPasswordBytes < 0 {
		problems = append(problems, "max bytes must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("password config: %s", strings.Join(problems, "; "))
	}
	return nil
}
