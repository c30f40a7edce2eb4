// Package pairing manages the pairings this machine holds with browser peers.
//
// The pairing protocol itself lives in thing-rtc-go; Store only decides when
// to respond, which pairing to use and how the pairing file is backed up.
package pairing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	rtcpairing "github.com/thingify-app/thing-rtc-go/pairing"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNotPaired is returned when no pairing has been set up yet.
	ErrNotPaired = errors.New("pairing not setup, re-run pairing")
	// ErrInvalidShortcode is returned for empty or malformed shortcodes.
	ErrInvalidShortcode = errors.New("invalid shortcode")
)

// TokenGenerator produces connection tokens for the signalling server.
type TokenGenerator = rtcpairing.TokenGenerator

type backend interface {
	respond(shortcode string) (string, error)
	ids() []string
	tokenGenerator(id string) (TokenGenerator, error)
	clear()
}

// Store is the set of pairings persisted in the pairing file.
type Store struct {
	b backend
}

// Open returns the store backed by pairingFile, talking to serverURL.
func Open(serverURL, pairingFile string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(pairingFile), 0700); err != nil {
		return nil, fmt.Errorf("creating pairing directory: %w", err)
	}
	return &Store{b: &rtcBackend{p: rtcpairing.NewPairing(serverURL, pairingFile)}}, nil
}

// NormalizeShortcode cleans up a shortcode typed or pasted by a user.
func NormalizeShortcode(s string) (string, error) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidShortcode)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidShortcode, r)
		}
	}
	return s, nil
}

// Respond replaces any existing pairing with the one offered under
// shortcode by the initiating peer, returning the new pairing id.
func (s *Store) Respond(shortcode string) (string, error) {
	code, err := NormalizeShortcode(shortcode)
	if err != nil {
		return "", err
	}

	s.b.clear()
	id, err := s.b.respond(code)
	if err != nil {
		return "", fmt.Errorf("responding to pairing: %w", err)
	}
	return id, nil
}

// IDs lists every stored pairing id.
func (s *Store) IDs() []string {
	return s.b.ids()
}

// First returns the pairing used for connections.
func (s *Store) First() (string, error) {
	ids := s.b.ids()
	if len(ids) == 0 {
		return "", ErrNotPaired
	}
	return ids[0], nil
}

// TokenGenerator returns the token source for pairing id.
func (s *Store) TokenGenerator(id string) (TokenGenerator, error) {
	tg, err := s.b.tokenGenerator(id)
	if err != nil {
		var zero TokenGenerator
		return zero, fmt.Errorf("loading pairing %s: %w", id, err)
	}
	return tg, nil
}

// Clear removes all pairings.
func (s *Store) Clear() {
	s.b.clear()
}

type rtcBackend struct {
	p rtcpairing.Pairing
}

func (r *rtcBackend) respond(shortcode string) (string, error) {
	result, err := r.p.RespondToPairing(shortcode)
	if err != nil {
		return "", err
	}
	return result.PairingId, nil
}

func (r *rtcBackend) ids() []string {
	return r.p.GetAllPairingIds()
}

func (r *rtcBackend) tokenGenerator(id string) (TokenGenerator, error) {
	return r.p.GetTokenGenerator(id)
}

func (r *rtcBackend) clear() {
	r.p.ClearAllPairings()
}
