package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/internal/model"
	"github.com/segovia241/ia-erp-universal/pkg/database"
)

// Migrates the api_endpoints table and optionally seeds it from the JSON
// catalog file, so a file-based deployment can be promoted to a DB-backed one.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	// gen_random_uuid() for the endpoint primary key default.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create extension: %v. Continuing...", err)
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.ApiEndpoint{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		log.Println("Success: Migration completed (no CATALOG_PATH set, skipping seed).")
		return
	}

	erpID := os.Getenv("ERP_ID")
	if erpID == "" {
		erpID = "default"
	}

	log.Printf("Step 3: Seeding endpoints from %s for erp %q...", catalogPath, erpID)
	seeded, err := seedCatalog(db, catalogPath, erpID)
	if err != nil {
		log.Fatalf("Error: Seed failed: %v", err)
	}
	log.Printf("Success: Migration completed, %d endpoints seeded.", seeded)
}

type catalogFile struct {
	Endpoints []entity.Endpoint `json:"endpoints"`
}

// seedCatalog replaces the erp's catalog rows with the file contents. The seed
// is a full sync, not a merge: the file is the source of truth.
func seedCatalog(db *gorm.DB, path, erpID string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog file: %w", err)
	}
	var parsed catalogFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("parse catalog file: %w", err)
	}

	rows := make([]model.ApiEndpoint, 0, len(parsed.Endpoints))
	for _, ep := range parsed.Endpoints {
		params, err := json.Marshal(ep.Parameters)
		if err != nil {
			return 0, fmt.Errorf("encode parameters for %s: %w", ep.Route, err)
		}
		rows = append(rows, model.ApiEndpoint{
			ErpId:       erpID,
			Module:      ep.Module,
			Action:      ep.Action,
			Route:       ep.Route,
			HttpMethod:  ep.HTTPMethod,
			Name:        ep.Name,
			Description: ep.Description,
			Parameters:  string(params),
			IsActive:    true,
		})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("erp_id = ?", erpID).Delete(&model.ApiEndpoint{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
