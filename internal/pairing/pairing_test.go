package pairing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thingify-app/thingify-net/internal/crypto"
)

type fakeBackend struct {
	pairings   []string
	responded  []string
	cleared    int
	respondErr error
}

func (f *fakeBackend) respond(shortcode string) (string, error) {
	if f.respondErr != nil {
		return "", f.respondErr
	}
	f.responded = append(f.responded, shortcode)
	id := "pairing-" + shortcode
	f.pairings = append(f.pairings, id)
	return id, nil
}

func (f *fakeBackend) ids() []string { return f.pairings }

func (f *fakeBackend) tokenGenerator(id string) (TokenGenerator, error) {
	var tg TokenGenerator
	for _, p := range f.pairings {
		if p == id {
			return tg, nil
		}
	}
	return tg, errors.New("no such pairing")
}

func (f *fakeBackend) clear() {
	f.cleared++
	f.pairings = nil
}

func TestNormalizeShortcode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ABC123", "ABC123", false},
		{"  abc123\n", "abc123", false},
		{"ＡＢＣ", "ABC", false}, // fullwidth letters fold under NFKC
		{"", "", true},
		{"   ", "", true},
		{"AB C", "", true},
		{"AB\x00C", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeShortcode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidShortcode) {
				t.Errorf("NormalizeShortcode(%q): got err %v, want ErrInvalidShortcode", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeShortcode(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeShortcode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRespondReplacesExistingPairings(t *testing.T) {
	fb := &fakeBackend{pairings: []string{"old"}}
	s := &Store{b: fb}

	id, err := s.Respond(" XYZ9 ")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if id != "pairing-XYZ9" {
		t.Errorf("id: got %q", id)
	}
	if fb.cleared != 1 {
		t.Errorf("cleared %d times, want 1", fb.cleared)
	}
	if diff := cmp.Diff([]string{"pairing-XYZ9"}, s.IDs()); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestRespondInvalidShortcodeKeepsPairings(t *testing.T) {
	fb := &fakeBackend{pairings: []string{"old"}}
	s := &Store{b: fb}

	if _, err := s.Respond(""); !errors.Is(err, ErrInvalidShortcode) {
		t.Fatalf("got %v, want ErrInvalidShortcode", err)
	}
	if fb.cleared != 0 {
		t.Error("existing pairings should survive an invalid shortcode")
	}
}

func TestRespondError(t *testing.T) {
	fb := &fakeBackend{respondErr: errors.New("shortcode expired")}
	s := &Store{b: fb}

	_, err := s.Respond("ABC")
	if err == nil || !errors.Is(err, fb.respondErr) {
		t.Errorf("got %v, want wrapped respond error", err)
	}
}

func TestFirst(t *testing.T) {
	s := &Store{b: &fakeBackend{}}
	if _, err := s.First(); !errors.Is(err, ErrNotPaired) {
		t.Errorf("empty store: got %v, want ErrNotPaired", err)
	}

	s = &Store{b: &fakeBackend{pairings: []string{"a", "b"}}}
	id, err := s.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if id != "a" {
		t.Errorf("First = %q, want a", id)
	}
}

func TestTokenGenerator(t *testing.T) {
	s := &Store{b: &fakeBackend{pairings: []string{"a"}}}
	if _, err := s.TokenGenerator("a"); err != nil {
		t.Errorf("known pairing: %v", err)
	}
	if _, err := s.TokenGenerator("missing"); err == nil {
		t.Error("expected error for unknown pairing")
	}
}

func TestClear(t *testing.T) {
	fb := &fakeBackend{pairings: []string{"a"}}
	s := &Store{b: fb}
	s.Clear()
	if len(s.IDs()) != 0 {
		t.Errorf("ids after clear: %v", s.IDs())
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pairing.json")
	content := []byte(`{"pairings":{"abc":{"remotePublicKey":"xyz"}}}`)
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatal(err)
	}

	sealed, err := Export(src, "hunter2-hunter2")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := filepath.Join(dir, "restored", "pairing.json")
	if err := Import(dst, sealed, "hunter2-hunter2", false); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("restored content: got %q, want %q", got, content)
	}

	// A second import without force must not clobber the file.
	if err := Import(dst, sealed, "hunter2-hunter2", false); !errors.Is(err, ErrBackupExists) {
		t.Errorf("got %v, want ErrBackupExists", err)
	}
	if err := Import(dst, sealed, "hunter2-hunter2", true); err != nil {
		t.Errorf("forced import: %v", err)
	}
}

func TestExportWithoutPairing(t *testing.T) {
	_, err := Export(filepath.Join(t.TempDir(), "pairing.json"), "pass")
	if !errors.Is(err, ErrNotPaired) {
		t.Errorf("got %v, want ErrNotPaired", err)
	}
}

func TestImportWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pairing.json")
	if err := os.WriteFile(src, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	sealed, err := Export(src, "right")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	dst := filepath.Join(dir, "other.json")
	if err := Import(dst, sealed, "wrong", false); err == nil {
		t.Error("expected error with wrong passphrase")
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("pairing file should not be written on failure")
	}
}

func TestImportChecksumMismatch(t *testing.T) {
	plain := []byte("version: 1\nchecksum: sha256:0000\npairing: '{}'\n")
	sealed, err := crypto.Seal(plain, "pass")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	err = Import(filepath.Join(t.TempDir(), "p.json"), sealed, "pass", false)
	if err == nil || err.Error() != "backup checksum mismatch" {
		t.Errorf("got %v, want checksum mismatch", err)
	}
}
