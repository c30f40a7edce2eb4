package web

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const noncePlaceholder = "{{CSP_NONCE}}"

// generateCSPNonce returns a base64-encoded 16-byte random nonce for CSP script-src.
func generateCSPNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(b)
}

// applyCSPNonce replaces all {{CSP_NONCE}} placeholders with nonce.
func applyCSPNonce(html, nonce string) string {
	return strings.ReplaceAll(html, noncePlaceholder, nonce)
}

// contentSecurityPolicy allows the page's own nonced scripts, compiling the
// wasm module, and connections to the pairing and signalling servers.
func contentSecurityPolicy(nonce string, connectSrc []string) string {
	connect := append([]string{"'self'"}, connectSrc...)
	return fmt.Sprintf(
		"default-src 'self'; script-src 'self' 'nonce-%s' 'wasm-unsafe-eval'; connect-src %s; img-src 'self' data:; object-src 'none'; frame-ancestors 'none'",
		nonce, strings.Join(connect, " "),
	)
}
