package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("server")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/scribbly")
	}

	// Enable environment variable binding
	// SCRIBBLY_GAME_ROUNDSECONDS style names work alongside the short names below
	v.SetEnvPrefix("scribbly")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.publicurl", "PUBLIC_URL")
	v.BindEnv("server.loglevel", "LOG_LEVEL")
	v.BindEnv("server.logformat", "LOG_FORMAT")
	v.BindEnv("server.ratelimit", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "MAX_REQUEST_SIZE")
	v.BindEnv("server.maxconnections", "MAX_CONNECTIONS")
	v.BindEnv("server.enablemetrics", "ENABLE_METRICS")
	v.BindEnv("server.metricsport", "METRICS_PORT")
	v.BindEnv("game.wordsfile", "WORDS_FILE")

	setDefaults(v, DefaultConfig())

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every field of d with viper so that env overrides
// apply even when no config file mentions the key.
func setDefaults(v *viper.Viper, d *ServerConfig) {
	s := d.Server
	v.SetDefault("server.maxplayersperroom", s.MaxPlayersPerRoom)
	v.SetDefault("server.roomcodelength", s.RoomCodeLength)
	v.SetDefault("server.roommaxage", s.RoomMaxAge.String())
	v.SetDefault("server.emptyroomgrace", s.EmptyRoomGrace.String())
	v.SetDefault("server.gameendretention", s.GameEndRetention.String())
	v.SetDefault("server.sweepinterval", s.SweepInterval.String())

	v.SetDefault("server.port", s.Port)
	v.SetDefault("server.host", s.Host)
	v.SetDefault("server.publicurl", s.PublicURL)
	v.SetDefault("server.readtimeout", s.ReadTimeout.String())
	v.SetDefault("server.writetimeout", s.WriteTimeout.String())
	v.SetDefault("server.idletimeout", s.IdleTimeout.String()) // 0 for websocket support
	v.SetDefault("server.shutdowntimeout", s.ShutdownTimeout.String())

	v.SetDefault("server.ratelimit", s.RateLimit)
	v.SetDefault("server.ratelimitburst", s.RateLimitBurst)
	v.SetDefault("server.messagerate", s.MessageRate)
	v.SetDefault("server.messageburst", s.MessageBurst)

	v.SetDefault("server.maxrequestsize", s.MaxRequestSize)
	v.SetDefault("server.maxmessagesize", s.MaxMessageSize)
	v.SetDefault("server.maxconnections", s.MaxConnections)
	v.SetDefault("server.allowedorigins", s.AllowedOrigins)

	v.SetDefault("server.enablemetrics", s.EnableMetrics)
	v.SetDefault("server.metricsport", s.MetricsPort)
	v.SetDefault("server.loglevel", s.LogLevel)
	v.SetDefault("server.logformat", s.LogFormat)

	g := d.Game
	v.SetDefault("game.defaultrounds", g.DefaultRounds)
	v.SetDefault("game.maxrounds", g.MaxRounds)
	v.SetDefault("game.minplayers", g.MinPlayers)
	v.SetDefault("game.wordchoicecount", g.WordChoiceCount)
	v.SetDefault("game.selectionseconds", g.SelectionSeconds)
	v.SetDefault("game.roundseconds", g.RoundSeconds)
	v.SetDefault("game.roundenddelay", g.RoundEndDelay.String())
	v.SetDefault("game.baseaward", g.BaseAward)
	v.SetDefault("game.timebonusfactor", g.TimeBonusFactor)
	v.SetDefault("game.drawerbonus", g.DrawerBonus)
	v.SetDefault("game.maxusernamelength", g.MaxUsernameLength)
	v.SetDefault("game.maxmessagelength", g.MaxMessageLength)
	v.SetDefault("game.wordsfile", g.WordsFile)
}
