package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Hashes are stored as "<hex key>.<hex salt>" where the
// hex salt string itself is the salt input.
const (
	scryptN       = 16384
	scryptR       = 8
	scryptP       = 1
	scryptKeyLen  = 64
	scryptSaltLen = 16
)

// PasswordHasher hashes new passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type ScryptHasher struct{}

func (ScryptHasher) Hash(password string) (string, error) {
	return HashPassword(password)
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// NewHasher returns the hasher for a configured algorithm name.
func NewHasher(cfg PasswordConfig) (PasswordHasher, error) {
	switch cfg.Algorithm {
	case "", "scrypt":
		return ScryptHasher{}, nil
	case "bcrypt":
		return BcryptHasher{Cost: cfg.BcryptCost}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, cfg.Algorithm)
}

// HashPassword hashes password with scrypt and a random salt.
func HashPassword(password string) (string, error) {
	saltBytes := make([]byte, scryptSaltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hex.EncodeToString(key) + "." + salt, nil
}

// ComparePasswords reports whether supplied matches stored, which may be a
// scrypt or a bcrypt hash.
func ComparePasswords(stored, supplied string) (bool, error) {
	if strings.HasPrefix(stored, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied))
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
		}
		return true, nil
	}

	hashed, salt, ok := strings.Cut(stored, ".")
	if !ok || salt == "" {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) != scryptKeyLen {
		return false, ErrMalformedHash
	}

	got, err := scrypt.Key([]byte(supplied), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
