// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t. The pool
// holds a single connection, so transactions run one at a time.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// SQLX wraps the same connection for the report queries.
func SQLX(t *testing.T, db *gorm.DB) *sqlx.DB {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	return sqlx.NewDb(sqlDB, "sqlite3")
}

// SeedUser inserts a user with the given role.
func SeedUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	id := uuid.NewString()
	u := &models.User{
		ID:          id,
		Email:       id[:8] + "@example.com",
		FirstName:   "Test",
		LastName:    "Reader",
		Password:    "x",
		Role:        role,
		IsActivated: true,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}

// SeedBook inserts a book with total copies, all available.
func SeedBook(t *testing.T, db *gorm.DB, title string, total int) *models.Book {
	t.Helper()
	b := &models.Book{Title: title, Author: "Author of " + title}
	require.NoError(t, db.Create(b).Error)
	inv := &models.Inventory{BookID: b.ID, Total: total, Available: total}
	require.NoError(t, db.Create(inv).Error)
	b.Inventory = inv
	return b
}

// Inventory reloads the counters for bookID.
func Inventory(t *testing.T, db *gorm.DB, bookID int64) models.Inventory {
	t.Helper()
	var inv models.Inventory
	require.NoError(t, db.Where("book_id = ?", bookID).First(&inv).Error)
	return inv
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
