package repository

import (
	"database/sql"
	"time"
)

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

// CacheEntry is one row of the cache index.
type CacheEntry struct {
	Hash       string
	Locator    string
	Bytes      int64
	AccessedAt time.Time
	CreatedAt  time.Time
}
