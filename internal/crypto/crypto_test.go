package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age/armor"
)

func TestGeneratePassphrase(t *testing.T) {
	tests := []struct {
		name    string
		bytes   int
		wantLen int
		wantErr bool
	}{
		{"default", DefaultPassphraseBytes, 32 + 7, false}, // 8 groups, 7 dashes
		{"minimum", 10, 16 + 3, false},
		{"uneven", 11, 18 + 4, false}, // 88 bits -> 18 chars, last group of 2
		{"too small", 8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, err := GeneratePassphrase(tt.bytes)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pass) != tt.wantLen {
				t.Errorf("length: got %d (%q), want %d", len(pass), pass, tt.wantLen)
			}
			for _, group := range strings.Split(pass, "-") {
				if len(group) == 0 || len(group) > 4 {
					t.Errorf("bad group %q in %q", group, pass)
				}
			}
			if strings.ContainsAny(pass, "=+/") {
				t.Errorf("passphrase should be unpadded base32, got %q", pass)
			}
		})
	}

	t.Run("unique", func(t *testing.T) {
		p1, _ := GeneratePassphrase(DefaultPassphraseBytes)
		p2, _ := GeneratePassphrase(DefaultPassphraseBytes)
		if p1 == p2 {
			t.Error("passphrases should be unique")
		}
	})
}

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"small", []byte(`{"pairings":[]}`)},
		{"empty", []byte{}},
		{"binary", bytes.Repeat([]byte{0, 1, 2, 0xff}, 2048)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.data, "test-passphrase")
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if !bytes.HasPrefix(sealed, []byte(armor.Header)) {
				t.Errorf("sealed output is not armored: %q", sealed[:min(40, len(sealed))])
			}

			opened, err := Open(sealed, "test-passphrase")
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !bytes.Equal(opened, tt.data) {
				t.Errorf("round-trip mismatch: got %d bytes, want %d", len(opened), len(tt.data))
			}
		})
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "correct")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(sealed, "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestOpenInvalidInput(t *testing.T) {
	if _, err := Open([]byte("not age encrypted data"), "pass"); err == nil {
		t.Error("expected error decrypting invalid data")
	}
}

func TestChecksum(t *testing.T) {
	h := Checksum([]byte("hello"))
	if !strings.HasPrefix(h, "sha256:") {
		t.Errorf("checksum should have sha256: prefix, got %s", h)
	}
	if len(h) != 7+64 {
		t.Errorf("unexpected checksum length: %d", len(h))
	}
	if h != Checksum([]byte("hello")) {
		t.Error("same input should produce same checksum")
	}
	if h == Checksum([]byte("world")) {
		t.Error("different input should produce different checksum")
	}
}

func TestChecksumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.json")
	content := []byte(`{"pairings":[{"pairingId":"abc"}]}`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}

	h, err := ChecksumFile(path)
	if err != nil {
		t.Fatalf("ChecksumFile: %v", err)
	}
	if h != Checksum(content) {
		t.Errorf("ChecksumFile != Checksum: got %s, want %s", h, Checksum(content))
	}

	if _, err := ChecksumFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestChecksumEqual(t *testing.T) {
	h := Checksum([]byte("test"))
	if !ChecksumEqual(h, h) {
		t.Error("identical checksums should compare equal")
	}
	if ChecksumEqual(h, "sha256:wrong") {
		t.Error("different checksums should not compare equal")
	}
}
