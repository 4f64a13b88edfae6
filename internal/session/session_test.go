package session

import (
	"encoding/json"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	originalData := "This is a secret identity"

	encrypted, err := encrypt([]byte(originalData))
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	if encrypted == "" {
		t.Fatal("Encrypted string is empty")
	}

	decrypted, err := decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt: %v", err)
	}

	if string(decrypted) != originalData {
		t.Errorf("Expected %q, got %q", originalData, string(decrypted))
	}
}

func TestIdentitySerialization(t *testing.T) {
	original := Identity{
		UserID: "u1",
		Name:   "Anonymous Otter",
		Alias:  "otter",
		Token:  "bearer-token-value",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal identity: %v", err)
	}

	encrypted, err := encrypt(data)
	if err != nil {
		t.Fatalf("Failed to encrypt identity: %v", err)
	}

	decryptedData, err := decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt identity: %v", err)
	}

	var restored Identity
	if err := json.Unmarshal(decryptedData, &restored); err != nil {
		t.Fatalf("Failed to unmarshal restored identity: %v", err)
	}

	if restored != original {
		t.Errorf("Expected %+v, got %+v", original, restored)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	if _, err := decrypt("not base64!!!"); err == nil {
		t.Error("Expected error for invalid base64")
	}

	if _, err := decrypt("c2hvcnQ="); err == nil {
		t.Error("Expected error for truncated ciphertext")
	}
}
