package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: ":memory:", DBLogLevel: "silent"}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		Close(db)
	})
	return db
}

func TestMigrate_CreatesTableAndIndexes(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	// second run must skip the existing indexes
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.Task{}))
	for _, idx := range taskIndexes {
		assert.True(t, db.Migrator().HasIndex(&models.Task{}, idx.name), idx.name)
	}
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverMySQL, config.DriverPostgres} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBPath: ":memory:"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d, driver)
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("silent"))
	assert.Equal(t, logger.Error, LogLevel("ERROR"))
	assert.Equal(t, logger.Info, LogLevel("debug"))
	assert.Equal(t, logger.Warn, LogLevel(""))
}

func TestScopes(t *testing.T) {
	db := openTestDB(t)
	dry := db.Session(&gorm.Session{DryRun: true})

	var tasks []models.Task
	stmt := dry.Model(&models.Task{}).Scopes(OrderBy("title", true), Paginate(5, 10)).Find(&tasks).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "ORDER BY `title` DESC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")

	stmt = dry.Model(&models.Task{}).Scopes(Paginate(0, 0)).Find(&tasks).Statement
	assert.NotContains(t, stmt.SQL.String(), "LIMIT")
	assert.NotContains(t, stmt.SQL.String(), "OFFSET")
}
