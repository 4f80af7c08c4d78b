package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultPort          = 3000
	DefaultAllowedOrigin = "http://localhost:5173"
	DefaultLogLevel      = "info"

	DefaultServerURL = "ws://localhost:3000/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
)

// Server holds the signaling server configuration.
type Server struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir"`
	DebugEndpoints bool     `yaml:"debug_endpoints"`
	LogLevel       string   `yaml:"log_level"`
}

// ServerOptions carries command-line overrides. Zero values and nil
// pointers mean "not set".
type ServerOptions struct {
	ConfigFile     string
	Port           int
	AllowedOrigins []string
	StaticDir      string
	DebugEndpoints *bool
	LogLevel       string
}

// LoadServer reads configuration with the following priority:
// 1. CLI flags (passed via ServerOptions) - highest priority
// 2. Environment variables
// 3. YAML config file, when one is given
// 4. Hardcoded defaults - lowest priority
func LoadServer(opts ServerOptions) (*Server, error) {
	cfg := &Server{
		Port:           DefaultPort,
		AllowedOrigins: []string{DefaultAllowedOrigin},
		LogLevel:       DefaultLogLevel,
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("PARACLETE_CONFIG")
	}
	if configFile != "" {
		if err := loadYAML(configFile, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("DEBUG_ENDPOINTS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBUG_ENDPOINTS %q: %w", v, err)
		}
		cfg.DebugEndpoints = enabled
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if len(opts.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = opts.AllowedOrigins
	}
	if opts.StaticDir != "" {
		cfg.StaticDir = opts.StaticDir
	}
	if opts.DebugEndpoints != nil {
		cfg.DebugEndpoints = *opts.DebugEndpoints
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Server) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Server) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static dir %s is not a directory", c.StaticDir)
		}
	}
	return nil
}

func loadYAML(path string, cfg *Server) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Client holds configuration for the paraclete command-line peer.
type Client struct {
	// ServerURL is the signaling websocket endpoint.
	ServerURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to TURN relay candidates.
	ForceRelay bool
}

// ClientOptions for loading config with CLI flag overrides
type ClientOptions struct {
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

var ErrRelayWithoutTURN = errors.New("cannot force relay mode without TURN server configured")

// LoadClient resolves client settings: CLI flag > env > default.
func LoadClient(opts ClientOptions) (*Client, error) {
	cfg := &Client{
		ServerURL:  firstNonEmpty(opts.ServerURL, os.Getenv("PARACLETE_SERVER"), DefaultServerURL),
		STUNServer: firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:   firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:   firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
		ForceRelay: opts.ForceRelay,
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, ErrRelayWithoutTURN
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HTTPBaseURL derives the server's HTTP base from the websocket URL,
// e.g. wss://host/ws becomes https://host.
func (c *Client) HTTPBaseURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/ws")
	switch {
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	default:
		return base
	}
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Client) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Client) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	if strings.Contains(c.TURNServer, "?transport=") {
		return []string{c.TURNServer}
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Client) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
