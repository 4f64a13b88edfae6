package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/teatok-app/teatok-tui/internal/config"
	"github.com/teatok-app/teatok-tui/internal/models"
)

// Identity is the locally persisted logged-in user. The token is echoed to
// the backend as a bearer header; it is never interpreted locally.
type Identity struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Alias       string `json:"alias,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
	Token       string `json:"token,omitempty"`
}

const identityFile = "identity.json"

func encryptionKey() []byte {
	paths := []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}
	var id string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			id = strings.TrimSpace(string(data))
			break
		}
	}

	if id == "" {
		hostname, _ := os.Hostname()
		id = hostname
	}

	return pbkdf2.Key([]byte(id), []byte("teatok-identity"), 4096, 32, sha256.New)
}

func encrypt(data []byte) (string, error) {
	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Load reads the stored identity for a profile. Missing or malformed data
// means "not authenticated" and returns nil.
func Load(profile string) *Identity {
	dir := config.Dir(profile)
	if dir == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, identityFile))
	if err != nil {
		return nil
	}

	decrypted, err := decrypt(string(data))
	if err != nil {
		return nil
	}

	var id Identity
	if err := json.Unmarshal(decrypted, &id); err != nil {
		return nil
	}
	if id.UserID == "" {
		return nil
	}
	return &id
}

// Save persists the identity for a profile.
func Save(profile string, id Identity) error {
	dir := config.Dir(profile)
	if dir == "" {
		return fmt.Errorf("could not get config directory")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}

	encrypted, err := encrypt(data)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, identityFile), []byte(encrypted), 0600)
}

// Clear removes the stored identity.
func Clear(profile string) {
	dir := config.Dir(profile)
	if dir != "" {
		os.Remove(filepath.Join(dir, identityFile))
	}
}

// FromUser builds an Identity from a login/register response.
func FromUser(u models.User) Identity {
	return Identity{
		UserID:      u.ID,
		Name:        u.Name,
		Alias:       u.Alias,
		AnonymousID: u.AnonymousID,
		Token:       u.Token,
	}
}
