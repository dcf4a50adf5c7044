// Package staticdir loads the two static JSON files the storefront
// serves from: the store directory and the services catalog. Both are
// written by the offline importer and read-only at runtime.
package staticdir

import (
	"encoding/json"
	"fmt"
	"os"

	"thefix/internal/catalog"
	"thefix/internal/domain"
)

// LoadLocations reads and validates the store directory. Every store
// needs a unique id and a well-formed coordinate; a bad directory is a
// startup failure, not something to limp along with.
func LoadLocations(path string) ([]domain.StoreLocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	var stores []domain.StoreLocation
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("parse store directory: %w", err)
	}

	seen := make(map[string]struct{}, len(stores))
	for i, st := range stores {
		if st.ID == "" {
			return nil, fmt.Errorf("store directory: entry %d has no id", i)
		}
		if _, dup := seen[st.ID]; dup {
			return nil, fmt.Errorf("store directory: duplicate id %q", st.ID)
		}
		seen[st.ID] = struct{}{}
		if st.Name == "" {
			return nil, fmt.Errorf("store directory: store %q has no name", st.ID)
		}
		if !st.Coordinate.Valid() {
			return nil, fmt.Errorf("store directory: store %q has a malformed coordinate", st.ID)
		}
	}
	return stores, nil
}

// LoadServices reads the derived catalog file and re-validates it, so a
// hand-edited file cannot sneak past the importer's rules.
func LoadServices(path string) ([]domain.ServiceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services catalog: %w", err)
	}

	entries, err := catalog.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("services catalog: %w", err)
	}
	if err := catalog.Validate(entries); err != nil {
		return nil, fmt.Errorf("services catalog: %w", err)
	}
	return entries, nil
}
