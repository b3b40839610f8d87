package config

import (
	"fmt"
	"time"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the server configuration
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
	Game   GameSettings   `yaml:"game"`
}

// ServerSettings contains server-wide settings
type ServerSettings struct {
	MaxPlayersPerRoom int `yaml:"maxPlayersPerRoom"`
	RoomCodeLength    int `yaml:"roomCodeLength"`

	// Room lifecycle, enforced by the registry sweep
	RoomMaxAge       time.Duration `yaml:"roomMaxAge"`
	EmptyRoomGrace   time.Duration `yaml:"emptyRoomGrace"`
	GameEndRetention time.Duration `yaml:"gameEndRetention"`
	SweepInterval    time.Duration `yaml:"sweepInterval"`

	// Server settings
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	PublicURL       string        `yaml:"publicURL"` // Base URL used in invite QR codes; derived from the request when empty
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for websocket/SSE support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // HTTP requests per second per IP
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size
	MessageRate    float64 `yaml:"messageRate"`    // websocket messages per second per connection
	MessageBurst   int     `yaml:"messageBurst"`

	// Request limits
	MaxRequestSize int64    `yaml:"maxRequestSize"`
	MaxMessageSize int64    `yaml:"maxMessageSize"` // websocket read limit
	MaxConnections int      `yaml:"maxConnections"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Monitoring
	EnableMetrics bool   `yaml:"enableMetrics"`
	MetricsPort   string `yaml:"metricsPort"` // No default - must be set if metrics enabled
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
}

// GameSettings contains the tunables of the game session engine
type GameSettings struct {
	DefaultRounds   int `yaml:"defaultRounds"`
	MaxRounds       int `yaml:"maxRounds"`
	MinPlayers      int `yaml:"minPlayers"`
	WordChoiceCount int `yaml:"wordChoiceCount"`

	SelectionSeconds int           `yaml:"selectionSeconds"`
	RoundSeconds     int           `yaml:"roundSeconds"`
	RoundEndDelay    time.Duration `yaml:"roundEndDelay"`

	// Scoring
	BaseAward       int     `yaml:"baseAward"`
	TimeBonusFactor float64 `yaml:"timeBonusFactor"`
	DrawerBonus     int     `yaml:"drawerBonus"`

	MaxUsernameLength int    `yaml:"maxUsernameLength"`
	MaxMessageLength  int    `yaml:"maxMessageLength"`
	WordsFile         string `yaml:"wordsFile"` // Overrides the embedded dictionary when set
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			MaxPlayersPerRoom: 12,
			RoomCodeLength:    6,

			RoomMaxAge:       24 * time.Hour,
			EmptyRoomGrace:   30 * time.Second,
			GameEndRetention: 5 * time.Minute,
			SweepInterval:    time.Minute,

			Port:            "8080",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,

			RateLimit:      10,
			RateLimitBurst: 20,
			MessageRate:    30,
			MessageBurst:   60,

			MaxRequestSize: 1048576, // 1MB
			MaxMessageSize: 65536,
			MaxConnections: 1000,

			EnableMetrics: false,
			MetricsPort:   "",
			LogLevel:      "info",
			LogFormat:     "text",
		},
		Game: GameSettings{
			DefaultRounds:   3,
			MaxRounds:       10,
			MinPlayers:      2,
			WordChoiceCount: 3,

			SelectionSeconds: 15,
			RoundSeconds:     60,
			RoundEndDelay:    5 * time.Second,

			BaseAward:       100,
			TimeBonusFactor: 2.0,
			DrawerBonus:     25,

			MaxUsernameLength: 20,
			MaxMessageLength:  200,
		},
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	// Required fields
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}

	// If metrics are enabled, port must be set
	if c.Server.EnableMetrics && c.Server.MetricsPort == "" {
		return fmt.Errorf("METRICS_PORT must be set when ENABLE_METRICS is true")
	}

	if c.Server.MaxPlayersPerRoom < 2 {
		return fmt.Errorf("maxPlayersPerRoom must be at least 2")
	}
	if c.Server.RoomCodeLength < 3 {
		return fmt.Errorf("roomCodeLength must be at least 3")
	}
	if c.Server.SweepInterval <= 0 {
		return fmt.Errorf("sweepInterval must be positive")
	}

	g := &c.Game
	if g.MinPlayers < 2 {
		return fmt.Errorf("minPlayers must be at least 2")
	}
	if g.MaxRounds < 1 {
		return fmt.Errorf("maxRounds must be at least 1")
	}
	if g.WordChoiceCount < 1 {
		return fmt.Errorf("wordChoiceCount must be at least 1")
	}
	if g.SelectionSeconds < 1 || g.RoundSeconds < 1 {
		return fmt.Errorf("selectionSeconds and roundSeconds must be at least 1")
	}
	if g.BaseAward < 0 || g.DrawerBonus < 0 || g.TimeBonusFactor < 0 {
		return fmt.Errorf("scoring constants cannot be negative")
	}

	// Clamp DefaultRounds into range
	if g.DefaultRounds < 1 {
		g.DefaultRounds = 1
	}
	if g.DefaultRounds > g.MaxRounds {
		g.DefaultRounds = g.MaxRounds
	}

	return nil
}
