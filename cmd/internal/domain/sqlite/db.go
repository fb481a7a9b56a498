package sqlite

import (
	"cityhospital/cmd/internal/domain/entity"
	"gorm.io/driver/sqlite"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

// Init opens the SQLite database at path and migrates the key/value table.
// ":memory:" gives a private database that lives as long as the pool.
func Init(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// One connection serializes writers; it also has to be pinned before
	// migrating or an in-memory database would be lost with its connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if path != memoryPath {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	err = db.AutoMigrate(&entity.KeyValue{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// DSN adds the connection options for a database file shared between
// processes: writers wait up to five seconds for the lock, and transactions
// take the write lock when they begin so a read-modify-write cannot be
// interleaved with another process.
func DSN(path string) string {
	if path == memoryPath || strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_txlock=immediate"
}
