// Package secrets encrypts config values with age so tokens can live in
// .env or config.jsonc as ENC[age:...] blobs.
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/dohr-michael/secretary/internal/config"
)

const encPrefix = "ENC[age:"
const encSuffix = "]"

// KeyPath returns the default age key file path: $SECRETARY_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.SecretaryPath(), ".age-key")
}

// GenerateIdentity creates an X25519 key pair and writes it to path with 0o600.
// It is idempotent: if the file already exists, it does nothing.
func GenerateIdentity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by secretary\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// LoadIdentity reads an age private key from the given file.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}

	id, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected identity type in %s", path)
	}
	return id, nil
}

// Encrypt encrypts plaintext with the given recipient and returns an ENC[age:...] blob.
func Encrypt(plaintext string, recipient *age.X25519Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("age encrypt init: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt close: %w", err)
	}

	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt decrypts an ENC[age:...] blob back to plaintext.
func Decrypt(blob string, identity *age.X25519Identity) (string, error) {
	if !IsEncrypted(blob) {
		return "", fmt.Errorf("not an encrypted blob")
	}

	encoded := blob[len(encPrefix) : len(blob)-len(encSuffix)]
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted returns true if the string is an ENC[age:...] blob.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, encPrefix) && strings.HasSuffix(s, encSuffix)
}

// ErrNoIdentity is returned when the config holds encrypted values but no key is available.
var ErrNoIdentity = errors.New("config holds encrypted values but no age identity is available")

// DecryptConfig replaces every ENC[age:...] credential in cfg with its plaintext.
// identity may be nil when nothing is encrypted.
func DecryptConfig(cfg *config.Config, identity *age.X25519Identity) error {
	fields := []*string{
		&cfg.Board.Trello.APIKey,
		&cfg.Board.Trello.Token,
		&cfg.Slack.BotToken,
		&cfg.Slack.AppToken,
	}
	for name, p := range cfg.Models.Providers {
		if err := decryptField(&p.Auth.APIKey, identity); err != nil {
			return fmt.Errorf("provider %s api_key: %w", name, err)
		}
		if err := decryptField(&p.Auth.Token, identity); err != nil {
			return fmt.Errorf("provider %s token: %w", name, err)
		}
		cfg.Models.Providers[name] = p
	}
	for _, f := range fields {
		if err := decryptField(f, identity); err != nil {
			return err
		}
	}
	return nil
}

func decryptField(field *string, identity *age.X25519Identity) error {
	if !IsEncrypted(*field) {
		return nil
	}
	if identity == nil {
		return ErrNoIdentity
	}
	plain, err := Decrypt(*field, identity)
	if err != nil {
		return err
	}
	*field = plain
	return nil
}

// DecryptEnviron decrypts every ENC[age:...] environment variable in place, so
// values written by `secretary secret set` are plaintext by the time the
// config is expanded.
func DecryptEnviron(identity *age.X25519Identity) error {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !IsEncrypted(value) {
			continue
		}
		if identity == nil {
			return ErrNoIdentity
		}
		plain, err := Decrypt(value, identity)
		if err != nil {
			return fmt.Errorf("decrypt %s: %w", key, err)
		}
		if err := os.Setenv(key, plain); err != nil {
			return err
		}
	}
	return nil
}
