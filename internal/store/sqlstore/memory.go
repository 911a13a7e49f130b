package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenMemory opens a throwaway in-memory SQLite database. The pool is
// pinned to one connection since every new SQLite memory connection would
// see its own empty database.
func OpenMemory(timeout time.Duration) (*Store, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database, %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	return New(db, timeout)
}

// sqliteFileParams make writers wait for the lock instead of failing fast.
// Immediate transactions take the write lock up front, so two reaction
// upserts can't deadlock upgrading from a read lock.
const sqliteFileParams = "_busy_timeout=5000&_txlock=immediate"

// OpenFile opens a file backed SQLite database
func OpenFile(path string, timeout time.Duration) (*Store, error) {
	return Open(sqlite.Open(fileDSN(path)), timeout)
}

func fileDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteFileParams
	}

	return path + "?" + sqliteFileParams
}
