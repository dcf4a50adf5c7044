package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"thefix/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// checkEntry enforces the per-entry schema rules on an already-coerced
// entry.
func checkEntry(e domain.ServiceEntry) error {
	label := serviceLabel(e.Name, e.Slug)

	if e.Category == "" {
		return invalid(label, "category", "is required")
	}
	if e.Name == "" {
		return invalid(label, "name", "is required")
	}
	if e.Description == "" {
		return invalid(label, "description", "is required")
	}
	if e.DurationMin <= 0 {
		return invalid(label, "duration_min", "must be a positive integer")
	}
	if e.WarrantyDays < 0 {
		return invalid(label, "warranty_days", "must be zero or greater")
	}
	if e.Slug == "" {
		return invalid(label, "slug", "is required")
	}
	if !slugPattern.MatchString(e.Slug) {
		return invalid(label, "slug", "must be kebab-case (lowercase words separated by hyphens)")
	}

	switch {
	case len(e.Variants) > 0 && len(e.Models) > 0:
		return invalid(label, "", "cannot have both variants and models")
	case len(e.Variants) == 0 && len(e.Models) == 0:
		return invalid(label, "", "missing variants or models")
	}
	for i, v := range e.Variants {
		if v.Option == "" {
			return invalid(label, field("variants", i, "option"), "label is required")
		}
		if v.Price < 0 {
			return invalid(label, field("variants", i, "price"), "must be zero or greater")
		}
	}
	for i, m := range e.Models {
		if m.Model == "" {
			return invalid(label, field("models", i, "model"), "label is required")
		}
		if m.Price < 0 {
			return invalid(label, field("models", i, "price"), "must be zero or greater")
		}
	}
	return nil
}

// Validate checks every entry against the schema rules and enforces
// slug uniqueness across the whole catalog. Duplicates are collected and
// reported together rather than stopping at the first, and they are
// never silently deduplicated.
func Validate(entries []domain.ServiceEntry) error {
	var errs []error

	for _, e := range entries {
		if err := checkEntry(e); err != nil {
			errs = append(errs, err)
		}
	}

	seen := map[string][]int{}
	for i, e := range entries {
		seen[e.Slug] = append(seen[e.Slug], i)
	}
	var dups []string
	for slug, idxs := range seen {
		if len(idxs) > 1 {
			dups = append(dups, slug)
		}
	}
	sort.Strings(dups)
	for _, slug := range dups {
		errs = append(errs, fmt.Errorf("duplicate slug %q at entries %s", slug, joinInts(seen[slug])))
	}

	return errors.Join(errs...)
}

func joinInts(idxs []int) string {
	parts := make([]string, len(idxs))
	for i, n := range idxs {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

// Sort returns a stable copy ordered by category (case-insensitive),
// then featured first, then name (case-insensitive). The storefront UI
// depends on this ordering for stable grouping.
func Sort(entries []domain.ServiceEntry) []domain.ServiceEntry {
	out := make([]domain.ServiceEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ca, cb := strings.ToLower(a.Category), strings.ToLower(b.Category); ca != cb {
			return ca < cb
		}
		if a.Featured != b.Featured {
			return a.Featured
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}

// Prepare validates a full catalog and returns it in serving order.
func Prepare(entries []domain.ServiceEntry) ([]domain.ServiceEntry, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return Sort(entries), nil
}
