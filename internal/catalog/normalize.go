package catalog

import (
	"math"
	"strconv"
	"strings"

	"thefix/internal/domain"
)

/********** coercion helpers **********/

// coerceBool accepts booleans, numbers and the usual truthy strings.
func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "y":
			return true
		}
	}
	return false
}

// coerceNumber accepts float64/int (JSON numbers arrive as float64) and
// plain numeric strings. Anything else, including separator-formatted
// strings like "1,299", is a parse failure for the caller to name.
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// stripEmpty trims a string value; blank strings coerce to absent.
func stripEmpty(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// firstPresent returns the first non-nil value among the given keys,
// covering snake_case and camelCase spellings of the same field.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func optionList(v any) []map[string]any {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func serviceLabel(name, slug string) string {
	if name != "" {
		return name
	}
	if slug != "" {
		return slug
	}
	return "<unknown>"
}

/********** record normalization **********/

// NormalizeRecord coerces one loosely-typed service record into a
// validated ServiceEntry. It enforces the single-option-family rule:
// a record carries variants or models, never both, never neither.
func NormalizeRecord(raw map[string]any) (domain.ServiceEntry, error) {
	name := stripEmpty(raw["name"])
	slug := stripEmpty(raw["slug"])
	label := serviceLabel(name, slug)

	variants := optionList(raw["variants"])
	models := optionList(raw["models"])

	if len(variants) == 0 && len(models) == 0 {
		return domain.ServiceEntry{}, invalid(label, "", "missing variants or models")
	}
	if len(variants) > 0 && len(models) > 0 {
		return domain.ServiceEntry{}, invalid(label, "", "cannot have both variants and models")
	}

	e := domain.ServiceEntry{
		Category:    stripEmpty(raw["category"]),
		Name:        name,
		Description: stripEmpty(raw["description"]),
		Featured:    coerceBool(raw["featured"]),
		Slug:        slug,
	}

	if dur, ok := coerceNumber(firstPresent(raw, "duration_min", "durationMin")); ok {
		e.DurationMin = int(dur)
		if dur != math.Trunc(dur) {
			return domain.ServiceEntry{}, invalid(label, "duration_min", "must be a whole number of minutes")
		}
	}
	if war, ok := coerceNumber(firstPresent(raw, "warranty_days", "warrantyDays")); ok {
		e.WarrantyDays = int(war)
		if war != math.Trunc(war) {
			return domain.ServiceEntry{}, invalid(label, "warranty_days", "must be a whole number of days")
		}
	}

	if len(variants) > 0 {
		e.Variants = make([]domain.ServiceVariant, 0, len(variants))
		for i, opt := range variants {
			price, ok := coerceNumber(opt["price"])
			if !ok {
				return domain.ServiceEntry{}, invalid(label, field("variants", i, "price"), "price must be numeric")
			}
			e.Variants = append(e.Variants, domain.ServiceVariant{Option: stripEmpty(opt["option"]), Price: price})
		}
	} else {
		e.Models = make([]domain.ServiceModel, 0, len(models))
		for i, opt := range models {
			price, ok := coerceNumber(opt["price"])
			if !ok {
				return domain.ServiceEntry{}, invalid(label, field("models", i, "price"), "price must be numeric")
			}
			e.Models = append(e.Models, domain.ServiceModel{Model: stripEmpty(opt["model"]), Price: price})
		}
	}

	if err := checkEntry(e); err != nil {
		return domain.ServiceEntry{}, err
	}
	return e, nil
}

func field(family string, index int, name string) string {
	return family + "[" + strconv.Itoa(index) + "]." + name
}

/********** tabular grouping **********/

// GroupRows merges one-option-per-row tabular input into full records:
// rows sharing a slug become a single entry whose option list preserves
// row order. A row without a slug fails the whole import.
func GroupRows(rows []map[string]string) ([]domain.ServiceEntry, error) {
	type draft struct {
		fields   map[string]any
		variants []any
		models   []any
	}
	drafts := map[string]*draft{}
	var order []string

	for _, row := range rows {
		slug := strings.TrimSpace(row["slug"])
		if slug == "" {
			return nil, invalid(serviceLabel(row["name"], ""), "slug", "tabular input requires a slug column")
		}

		d, ok := drafts[slug]
		if !ok {
			d = &draft{fields: map[string]any{
				"category":      row["category"],
				"name":          row["name"],
				"description":   row["description"],
				"duration_min":  pick(row, "duration_min", "durationMin"),
				"warranty_days": pick(row, "warranty_days", "warrantyDays"),
				"featured":      row["featured"],
				"slug":          slug,
			}}
			drafts[slug] = d
			order = append(order, slug)
		}

		kind := strings.ToLower(strings.TrimSpace(pick(row, "option_type", "optionType")))
		if kind == "model" || kind == "models" {
			d.models = append(d.models, map[string]any{
				"model": pick(row, "model", "option"),
				"price": row["price"],
			})
		} else {
			d.variants = append(d.variants, map[string]any{
				"option": pick(row, "option", "model"),
				"price":  row["price"],
			})
		}
	}

	out := make([]domain.ServiceEntry, 0, len(order))
	for _, slug := range order {
		d := drafts[slug]
		raw := d.fields
		if len(d.variants) > 0 {
			raw["variants"] = d.variants
		}
		if len(d.models) > 0 {
			raw["models"] = d.models
		}
		e, err := NormalizeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func pick(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
