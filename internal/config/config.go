package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Session is the typed replacement for the free-form app-state map the
// desktop app carried around: it holds exactly what downstream components
// need from the authenticated request, nothing ambient. Built per request
// from the verified token claims.
type Session struct {
	ManagerID string
}

// Config is the process configuration, loaded once at startup.
type Config struct {
	ListenAddr    string
	NotifyBaseURL string
	JWTSecret     string

	// CompanyAnchor is the headquarters point always shown on the live
	// map. Defaults to Madrid.
	CompanyAnchor [2]float64
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		NotifyBaseURL: getEnv("NOTIFY_BASE_URL", "http://localhost:8000"),
		JWTSecret:     getEnv("JWT_SECRET", "supersecret"),
		CompanyAnchor: [2]float64{
			getEnvFloat("COMPANY_LAT", 40.4168),
			getEnvFloat("COMPANY_LON", -3.7038),
		},
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid float for %s, using default", key)
	}
	return defaultValue
}
