package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const (
	FileName        = "config.yml"
	PairingFileName = "pairing.json"
	// DirName matches the directory thing-rtc-go clients have always used.
	DirName = "thingrtc"

	DefaultPairingServerURL    = "https://thingify.deno.dev/pairing"
	DefaultSignallingServerURL = "wss://thingify.deno.dev/signalling"
	DefaultInterfaceName       = "thingify0"
	DefaultAddressRange        = "10.0.1.0/24"
	// DefaultMTU is the largest packet size that data channel messages
	// reliably deliver; 1200 already loses messages.
	DefaultMTU          = 1024
	DefaultLocalAddress = "10.0.1.2"
	DefaultRemoteHost   = "10.0.1.0"
	DefaultSSHPort      = 22
	DefaultWebClientURL = "https://thingify.app/net"

	MinMTU = 576
	MaxMTU = 65535
)

// Interface describes the local TUN device.
type Interface struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"` // CIDR, e.g. 10.0.1.0/24
	MTU     int    `yaml:"mtu"`
}

// Media configures the optional video track sent alongside the tunnel.
type Media struct {
	Enabled bool   `yaml:"enabled"`
	RTSPURL string `yaml:"rtsp_url,omitempty"` // when set, used instead of the local camera
}

// Browser holds the settings handed to the browser client.
type Browser struct {
	LocalAddress string `yaml:"local_address"`
	RemoteHost   string `yaml:"remote_host"`
	SSHPort      int    `yaml:"ssh_port"`
}

// Log configures diagnostic output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Config is the thingify-net configuration file.
type Config struct {
	PairingServerURL    string    `yaml:"pairing_server_url"`
	SignallingServerURL string    `yaml:"signalling_server_url"`
	PairingFile         string    `yaml:"pairing_file"`
	Interface           Interface `yaml:"interface"`
	Media               Media     `yaml:"media"`
	Browser             Browser   `yaml:"browser"`
	WebClientURL        string    `yaml:"web_client_url"`
	Log                 Log       `yaml:"log"`
	MetricsAddr         string    `yaml:"metrics_addr,omitempty"`

	// Path is the file this configuration was loaded from (not serialized)
	Path string `yaml:"-"`
}

// Dir returns the default configuration directory.
func Dir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(userConfigDir, DirName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Default returns a fully populated configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		PairingServerURL:    DefaultPairingServerURL,
		SignallingServerURL: DefaultSignallingServerURL,
		PairingFile:         filepath.Join(dir, PairingFileName),
		Interface: Interface{
			Name:    DefaultInterfaceName,
			Address: DefaultAddressRange,
			MTU:     DefaultMTU,
		},
		Browser: Browser{
			LocalAddress: DefaultLocalAddress,
			RemoteHost:   DefaultRemoteHost,
			SSHPort:      DefaultSSHPort,
		},
		WebClientURL: DefaultWebClientURL,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Path: filepath.Join(dir, FileName),
	}
}

// Load reads a configuration file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default(filepath.Dir(path))
	c.Path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	c.merge(&loaded)
	return c, nil
}

// merge copies every set field of o over c.
func (c *Config) merge(o *Config) {
	setString(&c.PairingServerURL, o.PairingServerURL)
	setString(&c.SignallingServerURL, o.SignallingServerURL)
	setString(&c.PairingFile, o.PairingFile)
	setString(&c.Interface.Name, o.Interface.Name)
	setString(&c.Interface.Address, o.Interface.Address)
	setInt(&c.Interface.MTU, o.Interface.MTU)
	c.Media.Enabled = o.Media.Enabled
	setString(&c.Media.RTSPURL, o.Media.RTSPURL)
	setString(&c.Browser.LocalAddress, o.Browser.LocalAddress)
	setString(&c.Browser.RemoteHost, o.Browser.RemoteHost)
	setInt(&c.Browser.SSHPort, o.Browser.SSHPort)
	setString(&c.WebClientURL, o.WebClientURL)
	setString(&c.Log.Level, o.Log.Level)
	setString(&c.Log.Format, o.Log.Format)
	setString(&c.MetricsAddr, o.MetricsAddr)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// ApplyEnv applies environment overrides. USE_RTSP=true with RTSP_URL
// switches the media source to the RTSP stream.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if getenv("USE_RTSP") == "true" {
		if u := getenv("RTSP_URL"); u != "" {
			c.Media.RTSPURL = u
		}
	}
	if lvl := getenv("THINGIFY_LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := checkURL("pairing_server_url", c.PairingServerURL, "https", "http"); err != nil {
		return err
	}
	if err := checkURL("signalling_server_url", c.SignallingServerURL, "wss", "ws"); err != nil {
		return err
	}
	if c.PairingFile == "" {
		return fmt.Errorf("pairing_file is required")
	}
	if c.Interface.Name == "" {
		return fmt.Errorf("interface.name is required")
	}
	if _, err := netip.ParsePrefix(c.Interface.Address); err != nil {
		return fmt.Errorf("interface.address: %w", err)
	}
	if c.Interface.MTU < MinMTU || c.Interface.MTU > MaxMTU {
		return fmt.Errorf("interface.mtu must be between %d and %d, got %d", MinMTU, MaxMTU, c.Interface.MTU)
	}
	if c.Media.RTSPURL != "" {
		if err := checkURL("media.rtsp_url", c.Media.RTSPURL, "rtsp", "rtsps"); err != nil {
			return err
		}
	}
	if err := checkIPv4("browser.local_address", c.Browser.LocalAddress); err != nil {
		return err
	}
	if err := checkIPv4("browser.remote_host", c.Browser.RemoteHost); err != nil {
		return err
	}
	if c.Browser.SSHPort <= 0 || c.Browser.SSHPort > 65535 {
		return fmt.Errorf("browser.ssh_port out of range: %d", c.Browser.SSHPort)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// checkIPv4 accepts only IPv4 literals; the browser netstack has no IPv6.
func checkIPv4(field, s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !addr.Is4() {
		return fmt.Errorf("%s must be an IPv4 address, got %q", field, s)
	}
	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be a %s URL, got %q", field, strings.Join(schemes, " or "), raw)
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.Path = path
	return nil
}
