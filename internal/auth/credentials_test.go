package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/amavi/catalogo/internal/model"
)

func TestVerify(t *testing.T) {
	creds, err := NewCredentials("admin", "s3gredo")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}

	tests := []struct {
		username, password string
		want               bool
	}{
		{"admin", "s3gredo", true},
		{"admin", "errado", false},
		{"Admin", "s3gredo", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := creds.Verify(tt.username, tt.password); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
		}
	}
}

func TestLoadOrCreateCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "admin_credentials.json")

	creds, generated, err := LoadOrCreateCredentials(path, "loja", "s3gredo")
	if err != nil {
		t.Fatalf("LoadOrCreateCredentials: %v", err)
	}
	if generated != "" {
		t.Errorf("expected no generated password, got %q", generated)
	}
	if !creds.Verify("loja", "s3gredo") {
		t.Error("expected configured password to verify")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading credentials file: %v", err)
	}
	var rec model.AdminCredentials
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decoding credentials file: %v", err)
	}
	if rec.Username != "loja" || rec.PasswordHash == "" || rec.PasswordHash == "s3gredo" {
		t.Errorf("unexpected stored record: %+v", rec)
	}

	// Later boots keep the stored account.
	again, _, err := LoadOrCreateCredentials(path, "outro", "outra")
	if err != nil {
		t.Fatalf("second LoadOrCreateCredentials: %v", err)
	}
	if !again.Verify("loja", "s3gredo") || again.Verify("outro", "outra") {
		t.Error("expected stored credentials to be kept")
	}
}

func TestLoadOrCreateCredentialsGeneratesPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin_credentials.json")

	creds, generated, err := LoadOrCreateCredentials(path, "", "")
	if err != nil {
		t.Fatalf("LoadOrCreateCredentials: %v", err)
	}
	if len(generated) != 16 {
		t.Fatalf("expected 16 character password, got %q", generated)
	}
	if creds.Username() != DefaultUsername {
		t.Errorf("expected username %q, got %q", DefaultUsername, creds.Username())
	}
	if !creds.Verify(DefaultUsername, generated) {
		t.Error("expected generated password to verify")
	}
}

func TestLoadCredentialsRejectsIncompleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin_credentials.json")
	os.WriteFile(path, []byte(`{"username": "admin"}`), 0o600)

	if _, err := LoadCredentials(path); err == nil {
		t.Error("expected error for missing hash")
	}
}
