package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/foodlens/internal/model"
	"github.com/Veraticus/foodlens/internal/nutrition"
)

// TestFoodDB is a migrated in-memory food database for tests.
type TestFoodDB struct {
	Store *nutrition.SQLiteStore
	t     *testing.T
	Foods []model.NutritionRecord
}

// SetupFoodDB creates an in-memory food database seeded with foods. The
// database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupFoodDB(t, testutil.CommonFoods()...)
func SetupFoodDB(t *testing.T, foods ...model.NutritionRecord) *TestFoodDB {
	t.Helper()

	store, err := nutrition.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if err := store.SaveFoods(ctx, foods); err != nil {
		t.Fatalf("failed to seed foods: %v", err)
	}

	return &TestFoodDB{Store: store, Foods: foods, t: t}
}

// MustAlias registers alias for an existing food or fails the test.
func (db *TestFoodDB) MustAlias(food, alias string) {
	db.t.Helper()
	if err := db.Store.AddAlias(context.Background(), food, alias); err != nil {
		db.t.Fatalf("failed to add alias %q for %q: %v", alias, food, err)
	}
}

// CommonFoods returns a small set of foods with per-serving nutrition.
func CommonFoods() []model.NutritionRecord {
	return []model.NutritionRecord{
		{Name: "Grilled Chicken Breast", ServingGrams: 100, Calories: 165, ProteinGrams: 31, FatGrams: 3.6},
		{Name: "Caesar Salad", ServingGrams: 150, Calories: 280, ProteinGrams: 7, CarbsGrams: 10, FatGrams: 24},
		{Name: "Spaghetti Carbonara", ServingGrams: 250, Calories: 525, ProteinGrams: 20, CarbsGrams: 60, FatGrams: 22},
		{Name: "Apple", ServingGrams: 182, Calories: 95, ProteinGrams: 0.5, CarbsGrams: 25, FatGrams: 0.3},
		{Name: "Banana", ServingGrams: 118, Calories: 105, ProteinGrams: 1.3, CarbsGrams: 27, FatGrams: 0.4},
		{Name: "Eggplant", ServingGrams: 100, Calories: 25, ProteinGrams: 1, CarbsGrams: 6, FatGrams: 0.2},
	}
}
