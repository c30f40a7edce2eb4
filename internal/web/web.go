// Package web serves the browser client and its settings.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/thingify-app/thingify-net/internal/config"
)

const (
	indexFile = "index.html"

	// RequestLimit is the number of requests a single IP may make per
	// RequestWindow.
	RequestLimit  = 120
	RequestWindow = time.Minute

	shutdownTimeout = 5 * time.Second
)

// ClientConfig is served as /config.json for the page and the wasm module.
type ClientConfig struct {
	PairingServerURL    string `json:"pairingServerUrl"`
	SignallingServerURL string `json:"signallingServerUrl"`
	MTU                 int    `json:"mtu"`
	LocalAddress        string `json:"localAddress"`
	RemoteHost          string `json:"remoteHost"`
	SSHPort             int    `json:"sshPort"`
}

// NewClientConfig extracts the browser-facing settings from cfg.
func NewClientConfig(cfg *config.Config) ClientConfig {
	return ClientConfig{
		PairingServerURL:    cfg.PairingServerURL,
		SignallingServerURL: cfg.SignallingServerURL,
		MTU:                 cfg.Interface.MTU,
		LocalAddress:        cfg.Browser.LocalAddress,
		RemoteHost:          cfg.Browser.RemoteHost,
		SSHPort:             cfg.Browser.SSHPort,
	}
}

// Handler returns the router serving the client in dir.
func Handler(dir string, cc ClientConfig, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(httprate.Limit(
		RequestLimit,
		RequestWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(RequestWindow.Seconds())))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}),
	))

	connectSrc := origins(cc.PairingServerURL, cc.SignallingServerURL)
	index := func(w http.ResponseWriter, r *http.Request) {
		serveIndex(w, r, filepath.Join(dir, indexFile), connectSrc, log)
	}
	r.Get("/", index)
	r.Get("/"+indexFile, index)

	r.Get("/config.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(cc); err != nil {
			log.Warn().Err(err).Msg("writing client config")
		}
	})

	files := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		files.ServeHTTP(w, r)
	})
	return r
}

func serveIndex(w http.ResponseWriter, r *http.Request, path string, connectSrc []string, log zerolog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("path", path).Msg("reading index")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	nonce := generateCSPNonce()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", contentSecurityPolicy(nonce, connectSrc))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(applyCSPNonce(string(data), nonce)))
}

// origins returns the scheme://host of each parseable URL.
func origins(raw ...string) []string {
	var out []string
	for _, s := range raw {
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		out = append(out, u.Scheme+"://"+u.Host)
	}
	return out
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// Serve listens on addr and serves h until ctx is cancelled, then shuts
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serve(ctx, ln, h, log)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("serving")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
