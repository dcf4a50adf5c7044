package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thefix/internal/catalog"
	"thefix/internal/domain"
)

func variantRecord(mut func(map[string]any)) map[string]any {
	rec := map[string]any{
		"category":      "Screens",
		"name":          "iPhone 14 Screen Replacement",
		"description":   "Genuine OLED replacement",
		"duration_min":  "90",
		"warranty_days": "180",
		"featured":      "yes",
		"slug":          "iphone-14-screen-replacement",
		"variants": []any{
			map[string]any{"option": "OEM", "price": "249"},
			map[string]any{"option": "Aftermarket", "price": 179.0},
		},
	}
	if mut != nil {
		mut(rec)
	}
	return rec
}

func TestNormalizeRecord_CoercesLooseFields(t *testing.T) {
	e, err := catalog.NormalizeRecord(variantRecord(nil))
	require.NoError(t, err)

	assert.Equal(t, 90, e.DurationMin)
	assert.Equal(t, 180, e.WarrantyDays)
	assert.True(t, e.Featured)
	require.Len(t, e.Variants, 2)
	assert.Equal(t, domain.ServiceVariant{Option: "OEM", Price: 249}, e.Variants[0])
	assert.Empty(t, e.Models)
}

func TestNormalizeRecord_OptionFamilyIsExclusive(t *testing.T) {
	_, err := catalog.NormalizeRecord(variantRecord(func(rec map[string]any) {
		rec["models"] = []any{map[string]any{"model": "Wi-Fi", "price": 239.0}}
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot have both")
	assert.Contains(t, err.Error(), "iPhone 14 Screen Replacement")

	_, err = catalog.NormalizeRecord(variantRecord(func(rec map[string]any) {
		delete(rec, "variants")
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing variants or models")
}

func TestNormalizeRecord_BadPriceNamesOptionIndex(t *testing.T) {
	_, err := catalog.NormalizeRecord(variantRecord(func(rec map[string]any) {
		rec["variants"] = []any{
			map[string]any{"option": "OEM", "price": "249"},
			map[string]any{"option": "Aftermarket", "price": "cheap"},
		}
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variants[1].price")
	assert.Contains(t, err.Error(), "numeric")
}

func TestNormalizeRecord_SeparatorFormattedPriceFails(t *testing.T) {
	_, err := catalog.NormalizeRecord(variantRecord(func(rec map[string]any) {
		rec["variants"] = []any{
			map[string]any{"option": "Logic board", "price": "1,299"},
		}
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iPhone 14 Screen Replacement")
	assert.Contains(t, err.Error(), "variants[0].price")
}

func TestNormalizeRecord_RejectsBadSlug(t *testing.T) {
	_, err := catalog.NormalizeRecord(variantRecord(func(rec map[string]any) {
		rec["slug"] = "Not A Slug"
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kebab-case")
}

func TestGroupRows_MergesRowsBySlug(t *testing.T) {
	csv := strings.Join([]string{
		"category,name,slug,description,duration_min,warranty_days,featured,option_type,option,model,price",
		"Screens,iPhone 14 Screen Replacement,iphone-14-screen-replacement,Genuine OLED replacement,90,180,true,variant,OEM,,249",
		"Screens,iPhone 14 Screen Replacement,iphone-14-screen-replacement,Genuine OLED replacement,90,180,true,variant,Aftermarket,,179",
		"Tablets,iPad 9th Gen Display Repair,ipad-9th-gen-display-repair,Digitizer and LCD assembly install,150,180,false,model,,Wi-Fi,239",
		"Tablets,iPad 9th Gen Display Repair,ipad-9th-gen-display-repair,Digitizer and LCD assembly install,150,180,false,model,,Cellular,269",
	}, "\n")

	entries, err := catalog.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	entries, err = catalog.Prepare(entries)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	screen, tablet := entries[0], entries[1]
	assert.Equal(t, "iphone-14-screen-replacement", screen.Slug)
	assert.True(t, screen.Featured)
	assert.Equal(t, []domain.ServiceVariant{
		{Option: "OEM", Price: 249},
		{Option: "Aftermarket", Price: 179},
	}, screen.Variants)

	assert.Equal(t, "ipad-9th-gen-display-repair", tablet.Slug)
	assert.Equal(t, []domain.ServiceModel{
		{Model: "Wi-Fi", Price: 239},
		{Model: "Cellular", Price: 269},
	}, tablet.Models)
}

func TestFromCSV_StripsLeadingBOM(t *testing.T) {
	csv := "\uFEFF" + strings.Join([]string{
		"category,name,slug,description,duration_min,warranty_days,featured,option_type,option,model,price",
		"Screens,iPhone 14 Screen Replacement,iphone-14-screen-replacement,Genuine OLED replacement,90,180,true,variant,OEM,,249",
	}, "\n")

	entries, err := catalog.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Screens", entries[0].Category)
}

func TestGroupRows_RowWithoutSlugFails(t *testing.T) {
	_, err := catalog.GroupRows([]map[string]string{
		{"category": "Screens", "name": "Orphan Row", "option": "OEM", "price": "99"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")
}

func TestSort_CategoryFeaturedName(t *testing.T) {
	entries := []domain.ServiceEntry{
		{Category: "B", Name: "Y"},
		{Category: "A", Name: "Z", Featured: true},
		{Category: "A", Name: "X"},
	}
	sorted := catalog.Sort(entries)

	got := make([]string, len(sorted))
	for i, e := range sorted {
		got[i] = e.Category + "/" + e.Name
	}
	assert.Equal(t, []string{"A/Z", "A/X", "B/Y"}, got)
}

func TestSort_IsStableForTies(t *testing.T) {
	entries := []domain.ServiceEntry{
		{Category: "a", Name: "same", Slug: "first"},
		{Category: "A", Name: "Same", Slug: "second"},
	}
	sorted := catalog.Sort(entries)
	assert.Equal(t, "first", sorted[0].Slug)
	assert.Equal(t, "second", sorted[1].Slug)
}

func TestValidate_ReportsEveryDuplicateSlug(t *testing.T) {
	mk := func(slug, name string) domain.ServiceEntry {
		return domain.ServiceEntry{
			Category: "Screens", Name: name, Description: "d",
			DurationMin: 60, Slug: slug,
			Variants: []domain.ServiceVariant{{Option: "OEM", Price: 1}},
		}
	}
	err := catalog.Validate([]domain.ServiceEntry{
		mk("x", "First X"), mk("x", "Second X"), mk("z", "Z"), mk("z", "Z Again"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate slug "x"`)
	assert.Contains(t, err.Error(), `duplicate slug "z"`)
	assert.Contains(t, err.Error(), "0, 1")
}

func TestFromJSON_AcceptsArrayAndWrappedForms(t *testing.T) {
	record := `{"category":"Screens","name":"N","description":"d","duration_min":60,"warranty_days":0,"featured":false,"slug":"n","variants":[{"option":"OEM","price":99}]}`

	entries, err := catalog.FromJSON([]byte(`{"services":[` + record + `]}`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "n", entries[0].Slug)

	entries, err = catalog.FromJSON([]byte("\xef\xbb\xbf" + `[` + record + `]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = catalog.FromJSON([]byte(`{"nope":true}`))
	require.Error(t, err)
}
