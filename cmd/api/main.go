package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"thefix/internal/adapters/geocode"
	server "thefix/internal/adapters/http_server"
	"thefix/internal/adapters/observability"
	"thefix/internal/adapters/openai"
	"thefix/internal/adapters/ratelimit"
	"thefix/internal/adapters/sheets"
	"thefix/internal/app"
	"thefix/internal/domain"
	"thefix/internal/shared"
	"thefix/internal/storage/staticdir"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(reg)

	// static data
	stores, err := staticdir.LoadLocations(cfg.LocationsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LocationsPath).Msg("loading store directory failed")
	}
	catalog, err := staticdir.LoadServices(cfg.ServicesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ServicesPath).Msg("loading service catalog failed")
	}
	log.Info().Int("stores", len(stores)).Int("services", len(catalog)).Msg("static data loaded")

	// deps
	geocoder := buildGeocoder(cfg)
	completer := buildCompleter(cfg)
	tickets := buildTicketLog(cfg)

	var store ratelimit.Store
	if cfg.RedisAddr != "" {
		store = ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("rate limit store: redis")
	} else {
		store = ratelimit.NewMemoryStore()
		log.Info().Msg("rate limit store: in-process memory")
	}
	limiter := ratelimit.New(store, cfg.RateLimitMax, cfg.RateLimitWindow)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Locator:       app.NewLocatorService(geocoder, stores),
		Support:       app.NewSupportService(completer, stores),
		Stores:        stores,
		Catalog:       catalog,
		Tickets:       tickets,
		Limiter:       limiter,
		TicketsOrigin: cfg.TicketsOrigin,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func buildGeocoder(cfg shared.Config) domain.Geocoder {
	switch {
	case cfg.MapboxToken != "":
		g, err := geocode.New(geocode.ProviderMapbox, cfg.MapboxBase, cfg.MapboxToken, cfg.ProviderRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("mapbox client init failed")
		}
		log.Info().Msg("geocoding provider: mapbox")
		return g
	case cfg.GoogleMapsKey != "":
		g, err := geocode.New(geocode.ProviderGoogle, cfg.GoogleBase, cfg.GoogleMapsKey, cfg.ProviderRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("google maps client init failed")
		}
		log.Info().Msg("geocoding provider: google")
		return g
	default:
		log.Warn().Msg("no geocoding provider configured")
		return nil
	}
}

func buildCompleter(cfg shared.Config) domain.Completer {
	if cfg.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty, concierge will serve canned replies")
		return nil
	}
	c, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("openai client init failed")
	}
	return c
}

func buildTicketLog(cfg shared.Config) domain.TicketLog {
	if cfg.SheetsEmail == "" || cfg.SheetsKey == "" || cfg.SpreadsheetID == "" {
		log.Warn().Msg("ticket spreadsheet not configured, POST /api/tickets will fail")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t, err := sheets.New(ctx, cfg.SheetsEmail, cfg.SheetsKey, cfg.SpreadsheetID, cfg.SheetTab)
	if err != nil {
		log.Fatal().Err(err).Msg("sheets client init failed")
	}
	return t
}
