package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Migration represents a single database migration
type Migration struct {
	ID   int
	Name string
	Up   func(*gorm.DB) error
}

// allMigrations is the ordered list of all migrations
var allMigrations = []Migration{
	{
		ID:   1,
		Name: "0001_trim_trailing_slash_from_server_urls",
		Up:   migration0001TrimTrailingSlashFromServerURLs,
	},
}

// AllModels returns all the models that need to be migrated
func AllModels() []any {
	return []any{
		&MigrationModel{},
		&ServerModel{},
		&DeploymentModel{},
	}
}

// AutoMigrateAll runs the manual migrations and then auto-migrates all models.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationModel{}); err != nil {
		return err
	}

	if err := RunMigrations(db, len(allMigrations)); err != nil {
		return err
	}

	return db.AutoMigrate(AllModels()...)
}

// RunMigrations runs all migrations up to and including the specified ID
// If targetID is 0 or negative, all migrations are run
func RunMigrations(db *gorm.DB, targetID int) error {
	if targetID <= 0 {
		targetID = len(allMigrations)
	}

	for _, migration := range allMigrations {
		if migration.ID > targetID {
			break
		}

		applied, err := migrationApplied(db, migration.Name)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration.Name, err)
		}
		if applied {
			continue
		}

		if err := migration.Up(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Name, err)
		}

		if err := recordMigration(db, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
		}
	}

	return nil
}

func migrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.Model(&MigrationModel{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	migration := MigrationModel{
		Name:      name,
		AppliedAt: time.Now(),
	}
	return db.Create(&migration).Error
}

// CreateSchemaAtMigration creates the schema as it existed at a specific
// migration version. Tests use it to build databases that predate a migration.
// migrationID 0 = initial schema before any migrations
func CreateSchemaAtMigration(db *gorm.DB, migrationID int) error {
	if err := db.AutoMigrate(&MigrationModel{}); err != nil {
		return err
	}

	if err := createInitialSchema(db); err != nil {
		return err
	}

	if migrationID > 0 {
		return RunMigrations(db, migrationID)
	}

	return nil
}

// createInitialSchema creates the schema as it existed before any migrations
func createInitialSchema(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS servers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL UNIQUE,
			api_key TEXT,
			insecure INTEGER NOT NULL,
			ca_data TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS deployments (
			id TEXT PRIMARY KEY,
			server_url TEXT NOT NULL,
			path TEXT NOT NULL,
			app_id INTEGER NOT NULL,
			app_guid TEXT NOT NULL,
			app_mode TEXT NOT NULL,
			title TEXT,
			app_url TEXT,
			task_id TEXT,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error
}

// migration0001TrimTrailingSlashFromServerURLs normalizes server URLs stored
// before they were trimmed on input, so lookups by URL match again.
func migration0001TrimTrailingSlashFromServerURLs(db *gorm.DB) error {
	for _, table := range []string{"servers", "deployments"} {
		column := "url"
		if table == "deployments" {
			column = "server_url"
		}
		if !db.Migrator().HasTable(table) {
			continue
		}
		stmt := fmt.Sprintf("UPDATE %s SET %s = RTRIM(%s, '/') WHERE %s LIKE '%%/'", table, column, column, column)
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
