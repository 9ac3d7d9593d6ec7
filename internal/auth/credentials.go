package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"

	"github.com/amavi/catalogo/internal/model"
)

// DefaultUsername is the admin username when none is configured.
const DefaultUsername = "admin"

// Credentials is the admin account, loaded once at boot. It is read-only
// afterwards and safe for concurrent use.
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials hashes password for username.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &Credentials{username: username, hash: hash}, nil
}

// Username returns the admin username.
func (c *Credentials) Username() string {
	return c.username
}

// Verify reports whether username and password match the admin account.
func (c *Credentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	return userOK && passErr == nil
}

// LoadOrCreateCredentials reads the credentials file at path. When the file
// does not exist it is created for username, hashing password; an empty
// password is replaced by a generated one, which is returned so the caller
// can show it once.
func LoadOrCreateCredentials(path, username, password string) (*Credentials, string, error) {
	creds, err := LoadCredentials(path)
	if err == nil {
		return creds, "", nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", err
	}

	if username == "" {
		username = DefaultUsername
	}
	var generated string
	if password == "" {
		generated, err = GeneratePassword(16)
		if err != nil {
			return nil, "", fmt.Errorf("generating password: %w", err)
		}
		password = generated
	}

	creds, err = NewCredentials(username, password)
	if err != nil {
		return nil, "", err
	}
	if err := SaveCredentials(path, creds); err != nil {
		return nil, "", err
	}
	return creds, generated, nil
}

// LoadCredentials reads a credentials file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var rec model.AdminCredentials
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding credentials %s: %w", path, err)
	}
	if rec.Username == "" || rec.PasswordHash == "" {
		return nil, fmt.Errorf("credentials %s: username and passwordHash are required", path)
	}
	return &Credentials{username: rec.Username, hash: []byte(rec.PasswordHash)}, nil
}

// SaveCredentials writes creds to path, readable by the owner only.
func SaveCredentials(path string, creds *Credentials) error {
	rec := model.AdminCredentials{Username: creds.username, PasswordHash: string(creds.hash)}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// GeneratePassword creates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
