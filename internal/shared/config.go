package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	LocationsPath string
	ServicesPath  string

	MapboxToken   string
	MapboxBase    string
	GoogleMapsKey string
	GoogleBase    string
	ProviderRPS   int

	OpenAIKey   string
	OpenAIModel string
	OpenAIBase  string

	SheetsEmail   string
	SheetsKey     string
	SpreadsheetID string
	SheetTab      string

	TicketsOrigin string

	RedisAddr string
	RedisPass string
	RedisDB   int

	RateLimitMax    int
	RateLimitWindow time.Duration
}

func Load() Config {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		LocationsPath: env("LOCATIONS_PATH", "data/locations.json"),
		ServicesPath:  env("SERVICES_PATH", "data/services.json"),

		MapboxToken:   env("MAPBOX_TOKEN", ""),
		MapboxBase:    env("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		GoogleMapsKey: env("GOOGLE_MAPS_API_KEY", ""),
		GoogleBase:    env("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com"),
		ProviderRPS:   atoi("GEOCODE_PROVIDER_RPS", 5),

		OpenAIKey:   env("OPENAI_API_KEY", ""),
		OpenAIModel: env("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBase:  env("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		SheetsEmail:   env("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		SheetsKey:     env("GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY", ""),
		SpreadsheetID: env("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
		SheetTab:      env("TICKETS_SHEET_TAB", "Tickets"),

		TicketsOrigin: env("TICKETS_ORIGIN", "https://the-fix-website.vercel.app"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		RateLimitMax:    atoi("RATE_LIMIT_MAX", 10),
		RateLimitWindow: time.Duration(atoi("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
	if c.MapboxToken == "" && c.GoogleMapsKey == "" {
		log.Warn().Msg("no geocoding provider configured, store locator will use directory fallback only")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
