package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"thefix/internal/adapters/observability"
	"thefix/internal/catalog"
	"thefix/internal/domain"
	"thefix/internal/shared"
)

func main() {
	in := flag.String("in", "", "source catalog file (.csv or .json)")
	out := flag.String("out", "data/services.json", "destination for the normalized catalog")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *in == "" {
		log.Fatal().Msg("-in is required")
	}

	entries, err := read(*in)
	if err != nil {
		log.Fatal().Err(err).Str("in", *in).Msg("reading catalog failed")
	}

	prepared, err := catalog.Prepare(entries)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog rejected")
	}

	if err := write(*out, prepared); err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("writing catalog failed")
	}
	log.Info().Int("services", len(prepared)).Str("out", *out).Msg("catalog imported")
}

func read(path string) ([]domain.ServiceEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return catalog.FromCSV(f)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return catalog.FromJSON(data)
	}
}

func write(path string, entries []domain.ServiceEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
