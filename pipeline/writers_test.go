package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stylescrape/stylescrape/models"
)

func priceOf(v float64) *float64 { return &v }

func sampleRecord() *models.ProductRecord {
	return &models.ProductRecord{
		ProductID:      "460123456",
		Category:       "Shoes",
		Gender:         "Women",
		ProductURL:     "https://shop.test/x/p/460123456",
		ProductName:    "Block Heel Sandals",
		Brand:          "BrandX",
		Price:          priceOf(2999),
		OriginalPrice:  priceOf(4999),
		DiscountText:   "40% off",
		Rating:         "4.2",
		ReviewCount:    "118",
		PriceTier:      models.TierAffordable,
		ImageURL:       "https://img.test/460123456.jpg",
		ImageLocalPath: filepath.Join("images", "Shoes", "Women", "460123456-block-heel-sandals-brandx.jpg"),
		SourcePlatform: "Ajio",
	}
}

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	if err := w.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	for i, col := range csvHeader {
		if rows[0][i] != col {
			t.Fatalf("header col %d = %q, want %q", i, rows[0][i], col)
		}
	}

	row := rows[1]
	if row[0] != "460123456" || row[4] != "Block Heel Sandals" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[6] != "2999" || row[7] != "4999" {
		t.Fatalf("price columns = %q/%q, want 2999/4999", row[6], row[7])
	}
	if row[11] != "affordable" {
		t.Fatalf("tier column = %q, want affordable", row[11])
	}
}

func TestCSVWriterAbsentPricesAreEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	r := sampleRecord()
	r.Price = nil
	r.OriginalPrice = nil
	r.PriceTier = models.TierUnknown
	if err := w.Write([]*models.ProductRecord{r}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if rows[1][6] != "" || rows[1][7] != "" {
		t.Fatalf("absent prices rendered as %q/%q, want empty", rows[1][6], rows[1][7])
	}
	if rows[1][11] != "unknown" {
		t.Fatalf("tier = %q, want unknown", rows[1][11])
	}
}

func TestJSONWriterSingleLineArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter failed: %v", err)
	}

	if err := w.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if bytes.ContainsRune(data, '\n') {
		t.Fatal("json output contains newlines")
	}
	if !strings.HasPrefix(string(data), "[") || !strings.HasSuffix(string(data), "]") {
		t.Fatalf("json output is not an array: %q", data)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d records, want 1", len(decoded))
	}
	if decoded[0]["product_name"] != "Block Heel Sandals" {
		t.Fatalf("product_name = %v", decoded[0]["product_name"])
	}
	if decoded[0]["price_tier"] != "affordable" {
		t.Fatalf("price_tier = %v", decoded[0]["price_tier"])
	}
}

func TestJSONWriterEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("empty run wrote %q, want []", data)
	}
}

func TestDualWriterFansOut(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")

	w, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("NewDualWriter failed: %v", err)
	}
	if err := w.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	for _, path := range []string{csvPath, jsonPath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}
