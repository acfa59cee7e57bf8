package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stylescrape/stylescrape/models"
)

func TestLoadWorkUnitsDefaults(t *testing.T) {
	units, err := LoadWorkUnits("")
	if err != nil {
		t.Fatalf("LoadWorkUnits failed: %v", err)
	}
	if len(units) != 8 {
		t.Fatalf("got %d default units, want 8", len(units))
	}
	for _, u := range units {
		if u.Category == "" || u.Gender == "" || u.Keyword == "" {
			t.Fatalf("incomplete unit %+v", u)
		}
	}
}

func TestLoadWorkUnitsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	payload := `{"Bags": {"Men": ["men+sling+bag"], "Women": ["women+tote", "women+clutch"]}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	units, err := LoadWorkUnits(path)
	if err != nil {
		t.Fatalf("LoadWorkUnits failed: %v", err)
	}

	expected := []models.WorkUnit{
		{Category: "Bags", Gender: "Men", Keyword: "men+sling+bag"},
		{Category: "Bags", Gender: "Women", Keyword: "women+tote"},
		{Category: "Bags", Gender: "Women", Keyword: "women+clutch"},
	}
	if !reflect.DeepEqual(units, expected) {
		t.Fatalf("units = %+v, want %+v", units, expected)
	}
}

func TestLoadWorkUnitsErrors(t *testing.T) {
	if _, err := LoadWorkUnits(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := LoadWorkUnits(bad); err == nil {
		t.Fatal("expected error for malformed file")
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(empty, []byte(`{"Shoes": {"Women": []}}`), 0o644)
	if _, err := LoadWorkUnits(empty); err == nil {
		t.Fatal("expected error for empty keyword map")
	}
}

func TestFlattenWorkUnitsDeterministicOrder(t *testing.T) {
	m := KeywordMap{
		"Shoes": {"Women": {"women+heels"}, "Men": {"men+sneakers"}},
		"Bags":  {"Women": {"women+tote"}},
	}

	first := FlattenWorkUnits(m)
	for i := 0; i < 5; i++ {
		if got := FlattenWorkUnits(m); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d produced different order: %+v vs %+v", i, got, first)
		}
	}

	if first[0].Category != "Bags" {
		t.Fatalf("categories not sorted: first is %q", first[0].Category)
	}
	if first[1].Gender != "Men" {
		t.Fatalf("genders not sorted: second unit is %+v", first[1])
	}
}

func TestFlattenWorkUnitsSkipsEmptyKeywords(t *testing.T) {
	m := KeywordMap{"Shoes": {"Women": {"", "women+heels", ""}}}
	units := FlattenWorkUnits(m)
	if len(units) != 1 || units[0].Keyword != "women+heels" {
		t.Fatalf("units = %+v", units)
	}
}
