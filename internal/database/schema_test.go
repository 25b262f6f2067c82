package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_products_table.sql",
		"00002_create_pricebooks_table.sql",
		"00003_create_pricebook_entries_table.sql",
		"00004_create_opportunities_table.sql",
		"00005_create_quotes_table.sql",
		"00006_create_line_items_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing %q directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	migrationsDir := "../../migrations"

	expectedTables := map[string]string{
		"products":          "00001_create_products_table.sql",
		"pricebooks":        "00002_create_pricebooks_table.sql",
		"pricebook_entries": "00003_create_pricebook_entries_table.sql",
		"opportunities":     "00004_create_opportunities_table.sql",
		"quotes":            "00005_create_quotes_table.sql",
		"line_items":        "00006_create_line_items_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		path := filepath.Join(migrationsDir, migrationFile)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		createTableStmt := "CREATE TABLE IF NOT EXISTS " + tableName
		if !strings.Contains(contentStr, createTableStmt) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}

		dropTableStmt := "DROP TABLE IF EXISTS " + tableName
		if !strings.Contains(contentStr, dropTableStmt) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestPricebookEntriesTableHasRequiredColumns(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00003_create_pricebook_entries_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read pricebook entries migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"pricebook_id UUID",
		"product_id UUID",
		"product_name VARCHAR",
		"product_code VARCHAR",
		"is_active BOOLEAN",
		"cost_price DECIMAL",
		"unit_price DECIMAL",
		"category1 VARCHAR",
		"category2 VARCHAR",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Pricebook entries table missing required column definition: %s", column)
		}
	}

	if !strings.Contains(contentStr, "FOREIGN KEY (pricebook_id)") {
		t.Error("Pricebook entries table missing foreign key constraint to pricebooks")
	}
	if !strings.Contains(contentStr, "FOREIGN KEY (product_id)") {
		t.Error("Pricebook entries table missing foreign key constraint to products")
	}
}

func TestLineItemsTableHasParentKindConstraint(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00006_create_line_items_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read line items migration: %v", err)
	}

	contentStr := string(content)

	requiredKinds := []string{"opportunity", "quote", "pricebook_entry"}
	for _, kind := range requiredKinds {
		if !strings.Contains(contentStr, kind) {
			t.Errorf("Line items parent_kind constraint missing value: %s", kind)
		}
	}

	// Discount stays nullable: a NULL discount and a zero discount are
	// distinct outcomes in the save mapping.
	if !strings.Contains(contentStr, "discount DECIMAL") {
		t.Error("Line items table missing discount column")
	}
	if strings.Contains(contentStr, "discount DECIMAL(10, 2) NOT NULL") {
		t.Error("Line items discount column must be nullable")
	}
}
