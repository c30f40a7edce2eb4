package crypto

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

const (
	// DefaultPassphraseBytes gives 160 bits of entropy, 32 base32 characters.
	DefaultPassphraseBytes = 20

	minPassphraseBytes = 10
	groupSize          = 4
)

var passphraseEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GeneratePassphrase returns a random passphrase of numBytes entropy,
// base32 encoded and grouped in dash-separated blocks of four so it can be
// read aloud or typed on another machine.
func GeneratePassphrase(numBytes int) (string, error) {
	if numBytes < minPassphraseBytes {
		return "", fmt.Errorf("passphrase must be at least %d bytes, got %d", minPassphraseBytes, numBytes)
	}

	raw := make([]byte, numBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}

	encoded := passphraseEncoding.EncodeToString(raw)
	var b strings.Builder
	for i := 0; i < len(encoded); i += groupSize {
		if i > 0 {
			b.WriteByte('-')
		}
		end := min(i+groupSize, len(encoded))
		b.WriteString(encoded[i:end])
	}
	return b.String(), nil
}
