package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by IRVCHECK_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("IRVCHECK_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be set.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// APIKeys returns the keys accepted on /v1 routes.
// An empty list disables authentication.
func APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(os.Getenv("API_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// VerifyTimeout bounds a single contest's search. Accepts Go durations ("45s").
// Defaults to 30s.
func VerifyTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("VERIFY_TIMEOUT"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// VerifyConcurrency is how many contests of one audit file are checked at once.
// Defaults to 4.
func VerifyConcurrency() int {
	n, err := strconv.Atoi(os.Getenv("VERIFY_CONCURRENCY"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// MaxCandidates caps contest size; the search is exponential in it.
// Defaults to 20.
func MaxCandidates() int {
	n, err := strconv.Atoi(os.Getenv("MAX_CANDIDATES"))
	if err != nil || n <= 0 {
		return 20
	}
	return n
}

// RunRetentionDays is how long verification runs are kept. 0 keeps them forever.
// Defaults to 90.
func RunRetentionDays() int {
	v := os.Getenv("RUN_RETENTION_DAYS")
	if v == "" {
		return 90
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 90
	}
	return n
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// TracesExporter selects where spans go: none, stdout or otlp.
// Defaults to "none".
func TracesExporter() string {
	e := os.Getenv("OTEL_TRACES_EXPORTER")
	if e == "" {
		return "none"
	}
	return e
}

// OTLPEndpoint is the collector address used by the otlp exporter.
// Defaults to localhost:4317.
func OTLPEndpoint() string {
	e := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if e == "" {
		return "localhost:4317"
	}
	return e
}
