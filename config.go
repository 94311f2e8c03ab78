package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	UI struct {
		Color      string `mapstructure:"color"`
		ColorMode  string `mapstructure:"color_mode"`
		MaxWidth   int    `mapstructure:"max_width"`
		DateFormat string `mapstructure:"date_format"`
	} `mapstructure:"ui"`
	Artwork struct {
		Enabled      bool `mapstructure:"enabled"`
		Padding      int  `mapstructure:"padding"`
		WidthPixels  int  `mapstructure:"width_pixels"`
		WidthColumns int  `mapstructure:"width_columns"`
	} `mapstructure:"artwork"`
	Text struct {
		MaxLengthWithArt int `mapstructure:"max_length_with_art"`
		MaxLengthNoArt   int `mapstructure:"max_length_no_art"`
	} `mapstructure:"text"`
	Timing struct {
		UIRefreshMs    int `mapstructure:"ui_refresh_ms"`
		RestartDelayMs int `mapstructure:"restart_delay_ms"`
		ProbeTimeoutMs int `mapstructure:"probe_timeout_ms"`
	} `mapstructure:"timing"`
	Player struct {
		Command []string `mapstructure:"command"`
	} `mapstructure:"player"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// Defaults applied by viper and by applyDefaultsForInvalidFields
const (
	defaultColor          = "2"
	defaultColorMode      = "auto"
	defaultMaxWidth       = 45
	defaultDateFormat     = "Jan 2, 2006 at 3:04 PM"
	defaultPadding        = 16
	defaultWidthPixels    = 300
	defaultWidthColumns   = 13
	defaultMaxLenWithArt  = 22
	defaultMaxLenNoArt    = 36
	defaultUIRefreshMs    = 100
	defaultRestartDelayMs = 100
	defaultProbeTimeoutMs = 5000
)

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	cfg := sc.cfg
	cfg.Player.Command = append([]string(nil), sc.cfg.Player.Command...)
	return cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

var config = &SafeConfig{}

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

// configError describes one invalid config field
type configError struct {
	field   string
	message string
}

func (e configError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

var (
	ansiColorPattern = regexp.MustCompile(`^[0-9]{1,3}$`)
	hexColorPattern  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// isValidColor accepts ANSI codes 0-255 and #RGB / #RRGGBB hex colors
func isValidColor(color string) bool {
	if hexColorPattern.MatchString(color) {
		return true
	}
	if !ansiColorPattern.MatchString(color) {
		return false
	}
	n, err := strconv.Atoi(color)
	return err == nil && n <= 255
}

// validateConfig collects every invalid field instead of stopping at the first
func validateConfig(cfg *Config) []error {
	var errs []error
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, configError{field: field, message: fmt.Sprintf(format, args...)})
	}

	if !isValidColor(cfg.UI.Color) {
		add("ui.color", "invalid color format '%s'", cfg.UI.Color)
	}
	if cfg.UI.ColorMode != "auto" && cfg.UI.ColorMode != "manual" {
		add("ui.color_mode", "must be 'auto' or 'manual' (got '%s')", cfg.UI.ColorMode)
	}
	if cfg.UI.MaxWidth < 20 || cfg.UI.MaxWidth > 200 {
		add("ui.max_width", "must be between 20 and 200 (got %d)", cfg.UI.MaxWidth)
	}
	if strings.TrimSpace(cfg.UI.DateFormat) == "" {
		add("ui.date_format", "must not be empty")
	}

	if cfg.Artwork.Padding < 0 || cfg.Artwork.Padding >= cfg.UI.MaxWidth {
		add("artwork.padding", "must be between 0 and max_width (got %d)", cfg.Artwork.Padding)
	}
	if cfg.Artwork.WidthPixels < 50 || cfg.Artwork.WidthPixels > 2000 {
		add("artwork.width_pixels", "must be between 50 and 2000 (got %d)", cfg.Artwork.WidthPixels)
	}
	if cfg.Artwork.WidthColumns < 1 || cfg.Artwork.WidthColumns > 100 {
		add("artwork.width_columns", "must be between 1 and 100 (got %d)", cfg.Artwork.WidthColumns)
	}

	if cfg.Text.MaxLengthWithArt < 5 || cfg.Text.MaxLengthWithArt > 200 {
		add("text.max_length_with_art", "must be between 5 and 200 (got %d)", cfg.Text.MaxLengthWithArt)
	}
	if cfg.Text.MaxLengthNoArt < 5 || cfg.Text.MaxLengthNoArt > 200 {
		add("text.max_length_no_art", "must be between 5 and 200 (got %d)", cfg.Text.MaxLengthNoArt)
	}

	if cfg.Timing.UIRefreshMs < 10 || cfg.Timing.UIRefreshMs > 10000 {
		add("timing.ui_refresh_ms", "must be between 10 and 10000 (got %d)", cfg.Timing.UIRefreshMs)
	}
	if cfg.Timing.RestartDelayMs < 0 || cfg.Timing.RestartDelayMs > 5000 {
		add("timing.restart_delay_ms", "must be between 0 and 5000 (got %d)", cfg.Timing.RestartDelayMs)
	}
	if cfg.Timing.ProbeTimeoutMs < 100 || cfg.Timing.ProbeTimeoutMs > 60000 {
		add("timing.probe_timeout_ms", "must be between 100 and 60000 (got %d)", cfg.Timing.ProbeTimeoutMs)
	}

	return errs
}

// applyDefaultsForInvalidFields resets every field named in errs to its default
func applyDefaultsForInvalidFields(cfg *Config, errs []error) {
	for _, err := range errs {
		var ce configError
		if !errors.As(err, &ce) {
			continue
		}
		switch ce.field {
		case "ui.color":
			cfg.UI.Color = defaultColor
		case "ui.color_mode":
			cfg.UI.ColorMode = defaultColorMode
		case "ui.max_width":
			cfg.UI.MaxWidth = defaultMaxWidth
		case "ui.date_format":
			cfg.UI.DateFormat = defaultDateFormat
		case "artwork.padding":
			cfg.Artwork.Padding = defaultPadding
		case "artwork.width_pixels":
			cfg.Artwork.WidthPixels = defaultWidthPixels
		case "artwork.width_columns":
			cfg.Artwork.WidthColumns = defaultWidthColumns
		case "text.max_length_with_art":
			cfg.Text.MaxLengthWithArt = defaultMaxLenWithArt
		case "text.max_length_no_art":
			cfg.Text.MaxLengthNoArt = defaultMaxLenNoArt
		case "timing.ui_refresh_ms":
			cfg.Timing.UIRefreshMs = defaultUIRefreshMs
		case "timing.restart_delay_ms":
			cfg.Timing.RestartDelayMs = defaultRestartDelayMs
		case "timing.probe_timeout_ms":
			cfg.Timing.ProbeTimeoutMs = defaultProbeTimeoutMs
		}
	}

	// Padding is checked against max_width, which may itself have been reset
	if cfg.Artwork.Padding >= cfg.UI.MaxWidth {
		cfg.Artwork.Padding = defaultPadding
	}
}

// printConfigWarnings reports invalid fields on stderr before the UI starts
func printConfigWarnings(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "Warning: invalid configuration values, using defaults:")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
}

// loadConfig unmarshals, validates and repairs the current viper state
func loadConfig() (Config, []error) {
	var cfg Config
	var errs []error
	if err := viper.Unmarshal(&cfg); err != nil {
		errs = append(errs, fmt.Errorf("error parsing config: %w", err))
	}
	invalid := validateConfig(&cfg)
	applyDefaultsForInvalidFields(&cfg, invalid)
	return cfg, append(errs, invalid...)
}

// setConfigDefaults registers the same defaults applyDefaultsForInvalidFields repairs to
func setConfigDefaults() {
	viper.SetDefault("ui.color", defaultColor)
	viper.SetDefault("ui.color_mode", defaultColorMode)
	viper.SetDefault("ui.max_width", defaultMaxWidth)
	viper.SetDefault("ui.date_format", defaultDateFormat)
	viper.SetDefault("artwork.enabled", true)
	viper.SetDefault("artwork.padding", defaultPadding)
	viper.SetDefault("artwork.width_pixels", defaultWidthPixels)
	viper.SetDefault("artwork.width_columns", defaultWidthColumns)
	viper.SetDefault("text.max_length_with_art", defaultMaxLenWithArt)
	viper.SetDefault("text.max_length_no_art", defaultMaxLenNoArt)
	viper.SetDefault("timing.ui_refresh_ms", defaultUIRefreshMs)
	viper.SetDefault("timing.restart_delay_ms", defaultRestartDelayMs)
	viper.SetDefault("timing.probe_timeout_ms", defaultProbeTimeoutMs)
	viper.SetDefault("player.command", []string{})
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", defaultLogFile())
}

func initConfig(configFile string) {
	setConfigDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file location following XDG standard
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Check XDG_CONFIG_HOME first, fallback to ~/.config
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				configHome = filepath.Join(homeDir, ".config")
			}
		}

		if configHome != "" {
			viper.AddConfigPath(filepath.Join(configHome, "recplay"))
		}
	}

	// Environment variable support with RECPLAY_ prefix
	viper.SetEnvPrefix("RECPLAY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file found but had errors
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	// Command-line flags take precedence
	if colorFlag != defaultColor {
		viper.Set("ui.color", colorFlag)
		viper.Set("ui.color_mode", "manual")
	}
	if noArtworkFlag {
		viper.Set("artwork.enabled", false)
	}

	cfg, errs := loadConfig()
	printConfigWarnings(errs)
	config.Set(cfg)

	// Watch for config file changes and live reload
	viper.OnConfigChange(func(e fsnotify.Event) {
		newCfg, errs := loadConfig()
		for _, err := range errs {
			logger.Warn().Err(err).Str("file", e.Name).Msg("config reload")
		}
		config.Set(newCfg)
		select {
		case configChangeChan <- struct{}{}:
		default:
			// Channel full, skip notification
		}
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}
}
