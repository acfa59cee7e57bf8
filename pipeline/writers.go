package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/stylescrape/stylescrape/models"
)

// csvHeader lists the output columns; names and order are part of the output
// contract.
var csvHeader = []string{
	"product_id", "category", "gender", "product_url", "product_name",
	"brand", "price", "original_price", "discount_percent", "rating",
	"review_count", "price_tier", "image_url", "image_local_path",
	"source_platform",
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output in submission order.
func (cw *CSVWriter) Write(records []*models.ProductRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.ProductID,
			r.Category,
			r.Gender,
			r.ProductURL,
			r.ProductName,
			r.Brand,
			formatPrice(r.Price),
			formatPrice(r.OriginalPrice),
			r.DiscountText,
			r.Rating,
			r.ReviewCount,
			string(r.PriceTier),
			r.ImageURL,
			r.ImageLocalPath,
			r.SourcePlatform,
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		cw.rows++
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.file.Name())
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// JSONWriter collects records and writes them once, on Close, as a single
// UTF-8 JSON array with no embedded newlines, preserving submission order.
type JSONWriter struct {
	file    *os.File
	records []*models.ProductRecord
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	return &JSONWriter{file: f}, nil
}

// Write buffers records for the final array.
func (jw *JSONWriter) Write(records []*models.ProductRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.records = append(jw.records, records...)
	return nil
}

// Close marshals the accumulated array and closes the file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.records == nil {
		jw.records = []*models.ProductRecord{}
	}
	data, err := json.Marshal(jw.records)
	if err != nil {
		jw.file.Close()
		return fmt.Errorf("encode json array: %w", err)
	}
	if _, err := jw.file.Write(data); err != nil {
		jw.file.Close()
		return fmt.Errorf("write json array: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.file.Name())
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
