// Package config holds the CLI configuration and its validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Role represents the chosen role of this process.
type Role string

const (
	RoleStreamer Role = "streamer"
	RoleViewer   Role = "viewer"
	RoleRelay    Role = "relay"
)

// Viper keys. Each is also a flag name; the env variable is the key upper
// cased with "-" replaced by "_" and prefixed with CASTLINK_.
const (
	KeyDebug  = "debug"
	KeySTUN   = "stun"
	KeyWSURL  = "ws-url"
	KeyVideo  = "video"
	KeyAudio  = "audio"
	KeyOut    = "out"
	KeyListen = "listen"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CASTLINK"

// DefaultListen is the relay's default listen address.
const DefaultListen = ":8080"

// Config stores every parameter gathered from flags, env or prompts.
type Config struct {
	Role        Role
	WSURL       string   // Streamer, viewer: signaling URL
	Listen      string   // Relay: HTTP listen address
	STUNServers []string // Empty means the transport defaults
	VideoFile   string   // Streamer: IVF (VP8) file, optional
	AudioFile   string   // Streamer: Ogg (Opus) file, optional
	OutDir      string   // Viewer: recording directory, optional
	Debug       bool
}

// NewViper returns a viper instance with env binding and defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyListen, DefaultListen)
	return v
}

// Load builds a Config for role from v. The result is validated.
func Load(v *viper.Viper, role Role) (*Config, error) {
	cfg := &Config{
		Role:        role,
		WSURL:       v.GetString(KeyWSURL),
		Listen:      v.GetString(KeyListen),
		STUNServers: SplitList(v.GetStringSlice(KeySTUN)),
		VideoFile:   v.GetString(KeyVideo),
		AudioFile:   v.GetString(KeyAudio),
		OutDir:      v.GetString(KeyOut),
		Debug:       v.GetBool(KeyDebug),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields required by the role and normalizes the
// signaling URL.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleStreamer, RoleViewer:
		if c.WSURL == "" {
			return fmt.Errorf("missing --%s for %s role", KeyWSURL, c.Role)
		}
		wsURL, err := NormalizeWSURL(c.WSURL)
		if err != nil {
			return err
		}
		c.WSURL = wsURL

	case RoleRelay:
		if c.Listen == "" {
			return fmt.Errorf("missing --%s for relay role", KeyListen)
		}

	default:
		return fmt.Errorf("invalid role %q: must be streamer, viewer or relay", c.Role)
	}

	if c.Role != RoleStreamer && (c.VideoFile != "" || c.AudioFile != "") {
		return errors.New("--video and --audio are only valid for the streamer role")
	}
	if c.Role != RoleViewer && c.OutDir != "" {
		return fmt.Errorf("--%s is only valid for the viewer role", KeyOut)
	}
	return nil
}

// NormalizeWSURL validates a raw WebSocket URL. A missing scheme defaults to
// wss, http(s) is mapped to ws(s), and an empty path becomes /ws.
func NormalizeWSURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "wss://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid WebSocket URL scheme: %s", u.Scheme)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	u.Fragment = ""
	return u.String(), nil
}

// SplitList splits every element on commas and drops empty entries. Env
// values reach viper as one string, which it only splits on whitespace.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
