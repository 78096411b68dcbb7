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
	maxPassBytes          = 64
	algorithmID           = "argon2id"
)

// Input and decoding failures callers are expected to branch on.
var (
	// ErrEmptyPassword is an exported constant or variable used by the credential engine.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is an exported constant or variable used by the credential engine.
	ErrPasswordTooLong = errors.New("password must be at most 64 bytes")
	// ErrMalformedHash is an exported constant or variable used by the credential engine.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config defines a public type used by credauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 defines a public type used by credauth APIs.
//
// Argon2 instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Argon2 struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewArgon2 describes the newargon2 operation and its observable behavior.
//
// NewArgon2 may return an error when input validation, dependency calls, or security checks fail.
// NewArgon2 does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash derives an argon2id key over the raw bytes of the input (no Unicode
// normalization) with a fresh random salt and returns the PHC encoding.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPassBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	saltEncoded := base64.StdEncoding.EncodeToString(salt)
	hashEncoded := base64.StdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		saltEncoded,
		hashEncoded,
	), nil
}

// Compare describes the compare operation and its observable behavior.
//
// Compare applies the same candidate length checks as Hash, then recomputes
// the key with the parameters embedded in the stored PHC string and checks it
// in constant time. A mismatch is (false, nil); an error means the candidate
// was rejected before hashing or the stored hash could not be decoded.
//
// Compare may return an error when input validation, dependency calls, or security checks fail.
// Compare does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Argon2) Compare(password string, encodedHash string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	if len(password) > maxPassBytes {
		return false, ErrPasswordTooLong
	}

	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade describes the needsupgrade operation and its observable behavior.
//
// NeedsUpgrade reports whether a stored hash was produced with weaker
// parameters than the vault is currently configured with.
//
// NeedsUpgrade may return an error when input validation, dependency calls, or security checks fail.
// NeedsUpgrade does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if a.config.Memory > parsed.memory {
		return true, nil
	}
	if a.config.Time > parsed.time {
		return true, nil
	}
	if a.config.Parallelism > parsed.parallelism {
		return true, nil
	}
	if a.config.KeyLength != parsed.keyLength {
		return true, nil
	}

	return false, nil
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: invalid PHC format", ErrMalformedHash)
	}

	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm", ErrMalformedHash)
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, fmt.Errorf("%w: missing argon2 version", ErrMalformedHash)
	}

	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid argon2 version", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version", ErrMalformedHash)
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt encoding", ErrMalformedHash)
	}
	if len(salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: invalid salt length", ErrMalformedHash)
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hash encoding", ErrMalformedHash)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: invalid hash length", ErrMalformedHash)
	}

	return &parsedPHC{
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

type parsedParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(part string) (*parsedParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, fmt.Errorf("%w: invalid parameter format", ErrMalformedHash)
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             parsedParams
	)

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: invalid parameter entry", ErrMalformedHash)
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, fmt.Errorf("%w: invalid memory parameter", ErrMalformedHash)
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, fmt.Errorf("%w: invalid time parameter", ErrMalformedHash)
			}
			params.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, fmt.Errorf("%w: invalid parallelism parameter", ErrMalformedHash)
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, fmt.Errorf("%w: unsupported parameter", ErrMalformedHash)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}

	return &params, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
