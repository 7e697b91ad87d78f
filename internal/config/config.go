package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"celltowers/internal/database"
	"celltowers/internal/logging"
	"celltowers/internal/observability"
)

// Source kinds accepted by Config.Source.
const (
	SourceFile   = "file"
	SourceOracle = "oracle"
)

// Output formats accepted by Config.Formats.
const (
	FormatConsole = "console"
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatPNG     = "png"
	FormatSHP     = "shp"
	FormatGeoJSON = "geojson"
	FormatSQLite  = "sqlite"
)

var knownFormats = map[string]bool{
	FormatConsole: true,
	FormatCSV:     true,
	FormatXLSX:    true,
	FormatPNG:     true,
	FormatSHP:     true,
	FormatGeoJSON: true,
	FormatSQLite:  true,
}

// Config is the full runtime configuration of a pipeline run.
type Config struct {
	TowersPath    string
	OperatorsPath string
	OutputDir     string
	Source        string
	Formats       []string

	DB      database.DBConfig
	Log     logging.Config
	Tracing observability.TracingConfig

	// MetricsTextfile, when set, receives the run's Prometheus metrics in
	// text exposition format.
	MetricsTextfile string
}

// Default dataset paths. Adjust if your directory layout changes.
var (
	defaultTowersFile    = filepath.Join("data", "405.csv")
	defaultOperatorsFile = filepath.Join("data", "MCC-MNC India.csv")
)

// Load reads envFile (if it exists) into the process environment, builds a
// Config from environment variables, applies overrides in order and
// validates the result.
func Load(envFile string, overrides ...func(*Config)) (Config, error) {
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	cfg := FromEnv()
	for _, o := range overrides {
		o(&cfg)
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() Config {
	ratio := 1.0
	if raw := os.Getenv("TRACING_SAMPLE_RATIO"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 && parsed <= 1 {
			ratio = parsed
		}
	}

	return Config{
		TowersPath:    getEnvOrDefault("TOWERS_CSV", defaultTowersFile),
		OperatorsPath: getEnvOrDefault("OPERATORS_CSV", defaultOperatorsFile),
		OutputDir:     getEnvOrDefault("OUTPUT_DIR", "output"),
		Source:        strings.ToLower(getEnvOrDefault("SOURCE", SourceFile)),
		Formats:       ParseFormats(getEnvOrDefault("OUTPUT_FORMATS", "console,csv,xlsx,png,shp,geojson")),
		DB: database.DBConfig{
			Host:           getEnvOrDefault("DB_HOST", "localhost"),
			Port:           getEnvOrDefault("DB_PORT", "1521"),
			Service:        getEnvOrDefault("DB_SERVICE", "XE"),
			Username:       getEnvOrDefault("DB_USERNAME", ""),
			Password:       getEnvOrDefault("DB_PASSWORD", ""),
			WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", ""),
			TowersTable:    getEnvOrDefault("DB_TOWERS_TABLE", "TOWERS"),
			OperatorsTable: getEnvOrDefault("DB_OPERATORS_TABLE", "MCC_MNC"),
		},
		Log: logging.ConfigFromEnv(),
		Tracing: observability.TracingConfig{
			Enabled:     strings.EqualFold(os.Getenv("TRACING_ENABLED"), "true"),
			ServiceName: getEnvOrDefault("TRACING_SERVICE_NAME", "celltowers"),
			Exporter:    strings.ToLower(getEnvOrDefault("TRACING_EXPORTER", "stdout")),
			Endpoint:    os.Getenv("OTLP_ENDPOINT"),
			SampleRatio: ratio,
		},
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}
}

// Validate reports configuration values the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Source {
	case SourceFile:
		if c.TowersPath == "" || c.OperatorsPath == "" {
			return fmt.Errorf("file source needs both tower and operator paths")
		}
	case SourceOracle:
		if c.DB.Username == "" {
			return fmt.Errorf("oracle source needs DB_USERNAME")
		}
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceFile, SourceOracle)
	}
	for _, f := range c.Formats {
		if !knownFormats[f] {
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	return nil
}

// Wants reports whether the given output format is enabled.
func (c Config) Wants(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ParseFormats splits a comma separated format list, dropping blanks and
// duplicates while keeping order.
func ParseFormats(list string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(list, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// LoadEnvFile reads KEY=VALUE lines from filename into the environment.
// Variables already present in the environment are left untouched.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		if idx := strings.Index(line, "="); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])

			if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' ||
				value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}

			if _, set := os.LookupEnv(key); !set {
				os.Setenv(key, value)
			}
		}
	}
	return scanner.Err()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
