package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Files    FilesConfig
	Registry RegistryConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// FilesConfig holds upload and archival directory configuration
type FilesConfig struct {
	UploadDir          string
	ProcessedDir       string
	HistoryDBPath      string
	AcceptedExtensions []string
	MaxFileSize        int64
	MaxFiles           int
}

// RegistryConfig holds the client registry source paths
type RegistryConfig struct {
	SpreadsheetPath string
	TablePath       string
}

// PipelineConfig holds batch scheduling and extraction configuration
type PipelineConfig struct {
	BatchSize           int
	ConcurrencyLimit    int
	BatchPause          time.Duration
	ExtractTimeout      time.Duration
	ValidOperationCodes []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":5000"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Files: FilesConfig{
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
			ProcessedDir:       getEnv("PROCESSED_DIR", "./processed"),
			HistoryDBPath:      getEnv("HISTORY_DB_PATH", "./nfd-history.db"),
			AcceptedExtensions: getEnvAsSlice("ACCEPTED_EXTENSIONS", []string{"pdf", "txt"}),
			MaxFileSize:        getEnvAsInt64("MAX_FILE_SIZE", 50<<20),
			MaxFiles:           getEnvAsInt("MAX_FILES", 50),
		},
		Registry: RegistryConfig{
			SpreadsheetPath: getEnv("CLIENTS_XLSX_PATH", "./data/DADOSCLIENTES.xlsx"),
			TablePath:       getEnv("CLIENTS_CSV_PATH", "./data/DADOSCLIENTES.csv"),
		},
		Pipeline: PipelineConfig{
			BatchSize:           getEnvAsInt("BATCH_SIZE", 20),
			ConcurrencyLimit:    getEnvAsInt("MAX_CONCURRENT_FILES", 5),
			BatchPause:          getEnvAsDuration("BATCH_PAUSE", 500*time.Millisecond),
			ExtractTimeout:      getEnvAsDuration("EXTRACT_TIMEOUT", 30*time.Second),
			ValidOperationCodes: getEnvAsSlice("VALID_OPERATION_CODES", []string{"2411", "5202", "6202"}),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Files.UploadDir == "" || c.Files.ProcessedDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR and PROCESSED_DIR are required", ErrInvalidInput)
	}
	if c.Pipeline.BatchSize <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_SIZE must be positive", ErrInvalidInput)
	}
	if c.Pipeline.ConcurrencyLimit <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CONCURRENT_FILES must be positive", ErrInvalidInput)
	}
	if len(c.Pipeline.ValidOperationCodes) == 0 {
		return NewAppError("CONFIG_ERROR", "VALID_OPERATION_CODES must not be empty", ErrInvalidInput)
	}
	return nil
}
