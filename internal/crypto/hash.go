package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const checksumPrefix = "sha256:"

// Checksum returns the SHA-256 of b as "sha256:<hex>".
func Checksum(b []byte) string {
	h := sha256.Sum256(b)
	return checksumPrefix + hex.EncodeToString(h[:])
}

// ChecksumFile returns the SHA-256 of the file at path as "sha256:<hex>".
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return checksumPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumEqual compares two checksums in constant time.
func ChecksumEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
