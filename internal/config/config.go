package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.  Token TTL and the maximum upload size are design constants
// (7 days, 10 MiB) but remain overridable for tests and staging.
type Config struct {
    Env             string // application environment (e.g. "dev", "prod")
    Port            string // HTTP port to listen on
    DBUser          string // database username
    DBPass          string // database password (optional)
    DBHost          string // database host address
    DBPort          string // database port number
    DBName          string // database name
    JWTSecret       string // secret used to sign session tokens; empty means a random per-process key
    TokenTTLDays    int    // session token time-to-live in days
    BcryptCost      int    // bcrypt cost for password hashing
    UploadRoot      string // root directory where uploaded images are stored
    UploadURLPrefix string // public URL prefix under which uploads are served
    MaxUploadBytes  int64  // upload size ceiling in bytes
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The JWT secret is
// deliberately optional: when absent the server generates a fresh key at
// startup, which means issued tokens do not survive a restart.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),                             // environment (dev/test/prod)
        Port:            must("APP_PORT"),                            // port to bind the HTTP server
        DBUser:          must("DB_USER"),                             // database user
        DBPass:          os.Getenv("DB_PASS"),                        // database password (empty allowed)
        DBHost:          must("DB_HOST"),                             // database host
        DBPort:          must("DB_PORT"),                             // database port
        DBName:          must("DB_NAME"),                             // database name
        JWTSecret:       os.Getenv("JWT_SECRET"),                     // signing secret (empty -> per-process key)
        TokenTTLDays:    envInt("TOKEN_TTL_DAYS", 7),                 // token lifetime, 7 days by design
        BcryptCost:      envInt("BCRYPT_COST", 10),                   // bcrypt cost factor
        UploadRoot:      envStr("UPLOAD_ROOT", "/tmp/sblog/uploads"), // where image files land on disk
        UploadURLPrefix: envStr("UPLOAD_URL_PREFIX", "/uploads"),     // prefix of the served upload URLs
        MaxUploadBytes:  envInt64("MAX_UPLOAD_BYTES", 10*1024*1024),  // 10 MiB ceiling
    }
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

func envInt64(k string, d int64) int64 {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.ParseInt(v, 10, 64); err == nil {
        return n
    }
    return d
}
