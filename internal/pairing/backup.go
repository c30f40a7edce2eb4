package pairing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/thingify-app/thingify-net/internal/crypto"
)

const backupVersion = 1

// ErrBackupExists is returned by Import when a pairing file is already
// present and overwriting was not requested.
var ErrBackupExists = errors.New("pairing file already exists")

// backup is the plaintext inside an exported, age-encrypted pairing file.
type backup struct {
	Version  int       `yaml:"version"`
	Created  time.Time `yaml:"created"`
	Checksum string    `yaml:"checksum"`
	Pairing  string    `yaml:"pairing"`
}

// Export encrypts the pairing file with passphrase.
func Export(pairingFile, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(pairingFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotPaired
	}
	if err != nil {
		return nil, fmt.Errorf("reading pairing file: %w", err)
	}

	b := backup{
		Version:  backupVersion,
		Created:  time.Now().UTC().Truncate(time.Second),
		Checksum: crypto.Checksum(data),
		Pairing:  string(data),
	}
	plain, err := yaml.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	sealed, err := crypto.Seal(plain, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypting backup: %w", err)
	}
	return sealed, nil
}

// Import restores an exported backup into pairingFile. An existing file is
// only replaced when force is set.
func Import(pairingFile string, sealed []byte, passphrase string, force bool) error {
	if !force {
		if _, err := os.Stat(pairingFile); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrBackupExists, pairingFile)
		}
	}

	plain, err := crypto.Open(sealed, passphrase)
	if err != nil {
		return fmt.Errorf("decrypting backup: %w", err)
	}

	var b backup
	if err := yaml.Unmarshal(plain, &b); err != nil {
		return fmt.Errorf("parsing backup: %w", err)
	}
	if b.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %d", b.Version)
	}
	if !crypto.ChecksumEqual(crypto.Checksum([]byte(b.Pairing)), b.Checksum) {
		return fmt.Errorf("backup checksum mismatch")
	}

	if err := os.MkdirAll(filepath.Dir(pairingFile), 0700); err != nil {
		return fmt.Errorf("creating pairing directory: %w", err)
	}
	if err := renameio.WriteFile(pairingFile, []byte(b.Pairing), 0600); err != nil {
		return fmt.Errorf("writing pairing file: %w", err)
	}
	return nil
}
