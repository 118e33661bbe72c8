package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalises enumerated values
	"time"    // durations for OTP windows
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
	StoreRedis  = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database fields are only required when the
// mysql store driver is selected.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	StoreDriver      string // memory | mysql | redis
	StoreRedisPrefix string // key prefix for the redis store driver
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name

	SeatDataPath       string // seat geometry file used to seed an empty registry
	BookingMaxAttempts int    // toggle attempts before reporting a conflict

	OTP OTPConfig // one-time code settings

	RabbitURL string // AMQP URL for the OTP mail queue; empty disables the queue
}

// OTPConfig controls one-time code sign-in.
type OTPConfig struct {
	TTL           time.Duration // validity window of a code
	AllowedDomain string        // only addresses in this domain may sign in; empty allows all
	MaxAttempts   int           // failed verifications before a code is burned
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:          must("APP_ENV"),                         // environment (dev/test/prod)
		Port:         must("APP_PORT"),                        // port to bind the HTTP server
		JWTSecret:    must("JWT_SECRET"),                      // secret used for signing JWTs
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),         // TTL for access tokens in minutes
		BcryptCost:   envInt("BCRYPT_COST", 10),               // bcrypt cost factor
		StoreDriver:  strings.ToLower(envStr("STORE_DRIVER", StoreMemory)),

		StoreRedisPrefix:   envStr("STORE_REDIS_PREFIX", "{seats}"),
		SeatDataPath:       envStr("SEAT_DATA_PATH", "assets/seat-data.json"),
		BookingMaxAttempts: envInt("BOOKING_MAX_ATTEMPTS", 3),

		OTP: OTPConfig{
			TTL:           envDur("OTP_TTL", 5*time.Minute),
			AllowedDomain: os.Getenv("OTP_ALLOWED_DOMAIN"),
			MaxAttempts:   envInt("OTP_MAX_ATTEMPTS", 5),
		},

		RabbitURL: os.Getenv("RABBITMQ_URL"),
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreRedis:
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")      // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")      // database host
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME") // database name
	default:
		log.Fatalf("unknown STORE_DRIVER %q (want memory, mysql or redis)", cfg.StoreDriver)
	}
	if cfg.BookingMaxAttempts < 1 {
		cfg.BookingMaxAttempts = 1
	}
	if cfg.OTP.MaxAttempts < 1 {
		cfg.OTP.MaxAttempts = 1
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
