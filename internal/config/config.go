// Package config loads the railwatch configuration from defaults, an
// optional .env file, and RAILWATCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Data      DataConfig      `json:"data"`
	Analysis  AnalysisConfig  `json:"analysis"`
	WebSocket WebSocketConfig `json:"websocket"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         int      `json:"port"`
	Host         string   `json:"host"`
	ReadTimeout  int      `json:"read_timeout_seconds"`
	WriteTimeout int      `json:"write_timeout_seconds"`
	CORSOrigins  []string `json:"cors_origins"`
}

// DataConfig represents network inputs, generated-file outputs, and
// the generation knobs of the data pipeline
type DataConfig struct {
	Dir              string  `json:"dir"`
	StationsCSV      string  `json:"stations_csv"`
	CoordStationsCSV string  `json:"coord_stations_csv"`
	SectionsCSV      string  `json:"sections_csv"`
	ArchivePath      string  `json:"archive_path"`
	NumTrains        int     `json:"num_trains"`
	StartTime        string  `json:"start_time_iso"`
	Seed             int64   `json:"seed"`
	KNearest         int     `json:"k_nearest"`
	AvgSpeedKmph     float64 `json:"avg_speed_kmph"`
}

// AnalysisConfig represents the narrative collaborator configuration
type AnalysisConfig struct {
	APIKey  string `json:"-"` // Never serialize API key
	BaseURL string `json:"base_url,omitempty"`
}

// Enabled reports whether a collaborator is configured at all.
func (a *AnalysisConfig) Enabled() bool {
	return a.APIKey != ""
}

// WebSocketConfig represents the live feed configuration
type WebSocketConfig struct {
	Enabled        bool `json:"enabled"`
	SendBufferSize int  `json:"send_buffer_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8090,
			Host:         "localhost",
			ReadTimeout:  30,
			WriteTimeout: 30,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
				"http://localhost:8080",
				"http://127.0.0.1:8080",
			},
		},
		Data: DataConfig{
			Dir:              "./data",
			StationsCSV:      "./data/stations.csv",
			CoordStationsCSV: "./data/stations_geo.csv",
			SectionsCSV:      "./data/sections.csv",
			ArchivePath:      "./data/runs.db",
			NumTrains:        10,
			StartTime:        "2025-09-19T08:00:00",
			Seed:             42,
			KNearest:         3,
			AvgSpeedKmph:     70.0,
		},
		Analysis: AnalysisConfig{},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			SendBufferSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from environment variables and defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	// Override with environment variables
	loadFromEnv(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadDataConfig(config)
	loadAnalysisConfig(config)
	loadWebSocketConfig(config)
	loadLoggingConfig(config)
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(config *Config) {
	if port := os.Getenv("RAILWATCH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RAILWATCH_HOST"); host != "" {
		config.Server.Host = host
	}

	if readTimeout := os.Getenv("RAILWATCH_READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("RAILWATCH_WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}

	if origins := os.Getenv("RAILWATCH_CORS_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			config.Server.CORSOrigins = cleaned
		}
	}
}

// loadDataConfig loads data pipeline configuration from environment
func loadDataConfig(config *Config) {
	if dir := os.Getenv("RAILWATCH_DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}
	if path := os.Getenv("RAILWATCH_STATIONS_CSV"); path != "" {
		config.Data.StationsCSV = path
	}
	if path := os.Getenv("RAILWATCH_COORD_STATIONS_CSV"); path != "" {
		config.Data.CoordStationsCSV = path
	}
	if path := os.Getenv("RAILWATCH_SECTIONS_CSV"); path != "" {
		config.Data.SectionsCSV = path
	}
	if path := os.Getenv("RAILWATCH_ARCHIVE_PATH"); path != "" {
		config.Data.ArchivePath = path
	}

	if numTrains := os.Getenv("RAILWATCH_NUM_TRAINS"); numTrains != "" {
		if n, err := strconv.Atoi(numTrains); err == nil {
			config.Data.NumTrains = n
		}
	}
	if startTime := os.Getenv("RAILWATCH_START_TIME"); startTime != "" {
		config.Data.StartTime = startTime
	}
	if seed := os.Getenv("RAILWATCH_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Data.Seed = s
		}
	}
	if k := os.Getenv("RAILWATCH_K_NEAREST"); k != "" {
		if kn, err := strconv.Atoi(k); err == nil {
			config.Data.KNearest = kn
		}
	}
	if speed := os.Getenv("RAILWATCH_AVG_SPEED_KMPH"); speed != "" {
		if sp, err := strconv.ParseFloat(speed, 64); err == nil {
			config.Data.AvgSpeedKmph = sp
		}
	}
}

// loadAnalysisConfig loads the collaborator configuration from
// environment, accepting the unprefixed key name the original
// deployment used
func loadAnalysisConfig(config *Config) {
	if apiKey := os.Getenv("RAILWATCH_ANALYSIS_API_KEY"); apiKey != "" {
		config.Analysis.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Analysis.APIKey = apiKey
	}
	if baseURL := os.Getenv("RAILWATCH_ANALYSIS_BASE_URL"); baseURL != "" {
		config.Analysis.BaseURL = baseURL
	}
}

// loadWebSocketConfig loads the live feed configuration from environment
func loadWebSocketConfig(config *Config) {
	if enabled := os.Getenv("RAILWATCH_WS_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.WebSocket.Enabled = e
		}
	}
	if buffer := os.Getenv("RAILWATCH_WS_SEND_BUFFER"); buffer != "" {
		if b, err := strconv.Atoi(buffer); err == nil {
			config.WebSocket.SendBufferSize = b
		}
	}
}

// loadLoggingConfig loads logging configuration from environment
func loadLoggingConfig(config *Config) {
	if level := os.Getenv("RAILWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("RAILWATCH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if file := os.Getenv("RAILWATCH_LOG_FILE"); file != "" {
		config.Logging.File = file
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	// Validate data config
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.Data.NumTrains <= 0 {
		return fmt.Errorf("number of trains must be positive")
	}
	if c.Data.KNearest <= 0 {
		return fmt.Errorf("k nearest must be positive")
	}
	if c.Data.AvgSpeedKmph <= 0 {
		return fmt.Errorf("average speed must be positive")
	}

	// Validate websocket config
	if c.WebSocket.Enabled && c.WebSocket.SendBufferSize <= 0 {
		return fmt.Errorf("websocket send buffer must be positive")
	}

	// Validate logging config
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("log format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

// GetDataDir returns the data directory path, creating it if necessary
func (c *Config) GetDataDir() (string, error) {
	dataDir := c.Data.Dir
	if dataDir == "" {
		dataDir = "./data"
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(absPath, 0750); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return absPath, nil
}

// Address returns the host:port the server binds to.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
