package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestMigration0001TrimTrailingSlashFromServerURLs(t *testing.T) {
	db, err := InitDatabase(DBConfig{
		Path:     MemoryPath,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	err = CreateSchemaAtMigration(db, 0)
	require.NoError(t, err)

	err = db.Exec(`
		INSERT INTO servers (id, name, url, insecure, created_at, updated_at) VALUES
			(?, 'prod', 'https://connect.example.com/', 0, datetime('now'), datetime('now')),
			(?, 'dev', 'https://dev.example.com', 0, datetime('now'), datetime('now'))
	`, uuid.New(), uuid.New()).Error
	require.NoError(t, err)

	err = db.Exec(`
		INSERT INTO deployments (id, server_url, path, app_id, app_guid, app_mode, status, created_at, updated_at)
		VALUES (?, 'https://connect.example.com//', '/srv/site', 7, 'guid-7', 'static', 'completed', datetime('now'), datetime('now'))
	`, uuid.New()).Error
	require.NoError(t, err)

	err = RunMigrations(db, 1)
	require.NoError(t, err)

	var urls []string
	require.NoError(t, db.Raw("SELECT url FROM servers ORDER BY name").Scan(&urls).Error)
	assert.Equal(t, []string{"https://dev.example.com", "https://connect.example.com"}, urls)

	var serverURL string
	require.NoError(t, db.Raw("SELECT server_url FROM deployments").Scan(&serverURL).Error)
	assert.Equal(t, "https://connect.example.com", serverURL)

	var migrationCount int64
	err = db.Model(&MigrationModel{}).
		Where("name = ?", "0001_trim_trailing_slash_from_server_urls").
		Count(&migrationCount).
		Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), migrationCount, "Migration should be recorded once")

	// Running again must not fail or record twice
	err = RunMigrations(db, 1)
	assert.NoError(t, err, "Migration should be idempotent")
	err = db.Model(&MigrationModel{}).
		Where("name = ?", "0001_trim_trailing_slash_from_server_urls").
		Count(&migrationCount).
		Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), migrationCount)
}

func TestAutoMigrateAll_FreshDatabase(t *testing.T) {
	db, err := InitDatabase(DBConfig{Path: MemoryPath, LogLevel: logger.Silent})
	require.NoError(t, err)

	require.NoError(t, AutoMigrateAll(db))
	require.NoError(t, AutoMigrateAll(db), "auto-migration should be repeatable")

	assert.True(t, db.Migrator().HasTable(&ServerModel{}))
	assert.True(t, db.Migrator().HasTable(&DeploymentModel{}))

	var count int64
	require.NoError(t, db.Model(&MigrationModel{}).Count(&count).Error)
	assert.Equal(t, int64(len(allMigrations)), count)
}
