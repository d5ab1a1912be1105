// Package nutrition looks up foods by name in a local SQLite database or the
// Edamam food database API.
package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SourceSQLite tags records read from the local database.
const SourceSQLite = "sqlite"

// SQLiteStore is a food database backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and creates if needed) the database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("%w: database path is required", common.ErrMissingConfig)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveFood inserts a food or updates the existing one with the same name
// (case-insensitive). The record's ID is set on return.
func (s *SQLiteStore) SaveFood(ctx context.Context, record *model.NutritionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveFoodTx(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveFoods stores many records in one transaction.
func (s *SQLiteStore) SaveFoods(ctx context.Context, records []model.NutritionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := saveFoodTx(ctx, tx, &records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func saveFoodTx(ctx context.Context, tx *sql.Tx, record *model.NutritionRecord) error {
	name := strings.TrimSpace(record.Name)

	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO foods (name, serving_grams, calories, protein_g, carbs_g, fat_g)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			serving_grams = excluded.serving_grams,
			calories = excluded.calories,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		name, record.ServingGrams, record.Calories, record.ProteinGrams, record.CarbsGrams, record.FatGrams,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save food %q: %w", name, err)
	}

	record.ID = strconv.FormatInt(id, 10)
	record.Name = name
	record.Source = SourceSQLite
	return nil
}

// AddAlias makes a food findable under another name, e.g. "aubergine" for
// "eggplant".
func (s *SQLiteStore) AddAlias(ctx context.Context, foodName, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("alias is required")
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM foods WHERE name = ?`, strings.TrimSpace(foodName)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("food %q: %w", foodName, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to find food %q: %w", foodName, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO food_aliases (alias, food_id) VALUES (?, ?)
		 ON CONFLICT(alias) DO UPDATE SET food_id = excluded.food_id`,
		alias, id,
	); err != nil {
		return fmt.Errorf("failed to save alias %q: %w", alias, err)
	}
	return nil
}

// GetFood returns the food with the given name.
func (s *SQLiteStore) GetFood(ctx context.Context, name string) (*model.NutritionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, serving_grams, calories, protein_g, carbs_g, fat_g
		FROM foods WHERE name = ?`, strings.TrimSpace(name))

	record, err := scanFood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("food %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CountFoods returns how many foods are stored.
func (s *SQLiteStore) CountFoods(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

// Search implements service.NutritionLookup. Exact name or alias matches
// come first, then names starting with the query, then names containing it;
// shorter names win within a group.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]model.NutritionRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	pattern := escapeLike(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name, f.serving_grams, f.calories, f.protein_g, f.carbs_g, f.fat_g
		FROM foods f
		LEFT JOIN food_aliases a ON a.food_id = f.id AND a.alias = ?1
		WHERE f.name = ?1 OR a.alias IS NOT NULL OR f.name LIKE '%' || ?2 || '%' ESCAPE '\'
		GROUP BY f.id
		ORDER BY
			CASE
				WHEN f.name = ?1 THEN 0
				WHEN MAX(a.alias) IS NOT NULL THEN 1
				WHEN f.name LIKE ?2 || '%' ESCAPE '\' THEN 2
				ELSE 3
			END,
			LENGTH(f.name),
			f.name
		LIMIT ?3`,
		query, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search foods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.NutritionRecord
	for rows.Next() {
		record, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFood(row scanner) (*model.NutritionRecord, error) {
	var (
		id     int64
		record model.NutritionRecord
	)
	if err := row.Scan(&id, &record.Name, &record.ServingGrams, &record.Calories,
		&record.ProteinGrams, &record.CarbsGrams, &record.FatGrams); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan food: %w", err)
	}
	record.ID = strconv.FormatInt(id, 10)
	record.Source = SourceSQLite
	return &record, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
