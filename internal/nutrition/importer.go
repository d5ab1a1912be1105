package nutrition

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/foodlens/internal/model"
)

// CSV columns accepted by ImportCSV. Only name is required; the others
// default to zero, and serving_grams to 100.
var csvColumns = []string{"name", "serving_grams", "calories", "protein", "carbs", "fat"}

// ImportCSV reads foods from r and stores them in one transaction. The first
// row must be a header naming the columns, in any order. It returns the
// number of foods stored.
func (s *SQLiteStore) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.SaveFoods(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ParseCSV reads nutrition records from CSV.
func ParseCSV(r io.Reader) ([]model.NutritionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("CSV header must include a name column, got %v", header)
	}
	for col := range index {
		if !isKnownColumn(col) {
			return nil, fmt.Errorf("unknown CSV column %q (expected %s)", col, strings.Join(csvColumns, ", "))
		}
	}

	var records []model.NutritionRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		record, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if record.Name == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (model.NutritionRecord, error) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	record := model.NutritionRecord{
		Name:         field("name"),
		ServingGrams: 100,
		Source:       SourceSQLite,
	}

	numbers := []struct {
		dst *float64
		col string
	}{
		{col: "serving_grams", dst: &record.ServingGrams},
		{col: "calories", dst: &record.Calories},
		{col: "protein", dst: &record.ProteinGrams},
		{col: "carbs", dst: &record.CarbsGrams},
		{col: "fat", dst: &record.FatGrams},
	}
	for _, n := range numbers {
		raw := field(n.col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return record, fmt.Errorf("invalid %s %q: %w", n.col, raw, err)
		}
		*n.dst = v
	}

	if record.Name != "" {
		if err := record.Validate(); err != nil {
			return record, err
		}
	}
	return record, nil
}

func isKnownColumn(col string) bool {
	for _, c := range csvColumns {
		if c == col {
			return true
		}
	}
	return false
}
