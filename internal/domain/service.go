package domain

// ServiceVariant is a price option keyed by a free-text label
// (e.g. "OEM" vs "Aftermarket").
type ServiceVariant struct {
	Option string  `json:"option"`
	Price  float64 `json:"price"`
}

// ServiceModel is a price option keyed by a specific device model.
type ServiceModel struct {
	Model string  `json:"model"`
	Price float64 `json:"price"`
}

// ServiceEntry is one catalog entry. Exactly one of Variants or Models
// is populated and non-empty; the importer rejects anything else.
type ServiceEntry struct {
	Category     string           `json:"category"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	DurationMin  int              `json:"duration_min"`
	WarrantyDays int              `json:"warranty_days"`
	Featured     bool             `json:"featured"`
	Slug         string           `json:"slug"`
	Variants     []ServiceVariant `json:"variants,omitempty"`
	Models       []ServiceModel   `json:"models,omitempty"`
}
