package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateSecret returns the session signing secret stored at path,
// generating and storing one on first use. The file is created
// exclusively and re-read, so concurrent first boots agree on one value.
func LoadOrCreateSecret(path string) (string, error) {
	candidate, err := GenerateSecret()
	if err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating secret directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	switch {
	case err == nil:
		_, werr := f.WriteString(candidate + "\n")
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return "", fmt.Errorf("storing session secret: %w", err)
		}
	case !errors.Is(err, fs.ErrExist):
		return "", fmt.Errorf("creating session secret: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading session secret: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("session secret %s is empty", path)
	}
	return secret, nil
}
