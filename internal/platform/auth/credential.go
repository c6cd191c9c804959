package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const credentialFileName = "auth_token"

// LoadOrCreate returns the bearer credential from storageDir, generating a
// 32-byte random token on first run. The file is written 0600 since the
// token grants full control of node funds.
func LoadOrCreate(storageDir string, logger *slog.Logger) (string, error) {
	path := filepath.Join(storageDir, credentialFileName)

	raw, err := os.ReadFile(path)
	if err == nil {
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return "", fmt.Errorf("credential file %s is empty", path)
		}
		return token, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read credential file: %w", err)
	}

	if err := os.MkdirAll(storageDir, 0o700); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate credential: %w", err)
	}
	token := hex.EncodeToString(secret)

	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write credential file: %w", err)
	}

	if logger != nil {
		logger.Info("bearer credential generated",
			"event", "auth_credential_generated",
			"module", "internal/platform/auth",
			"layer", "platform",
			"path", path,
		)
	}
	return token, nil
}
