package repository

import (
	"context"
	"database/sql"
	"time"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db, now: time.Now} }

func (r *Repo) Close() error { return r.db.Close() }

// CacheTouch records an access. When created is set the row is (re)written
// with the given locator and size, keeping the original created_at.
func (r *Repo) CacheTouch(ctx context.Context, hash, locator string, size int64, created bool) error {
	now := r.now().UnixNano()
	if created {
		_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO file_cache(hash,locator,bytes,accessed_at,created_at) VALUES (?,?,?,?,COALESCE((SELECT created_at FROM file_cache WHERE hash=?),?))`,
			hash, locator, size, now, hash, now)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE file_cache SET accessed_at=? WHERE hash=?`, now, hash)
	return err
}

func (r *Repo) CacheRemove(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM file_cache WHERE hash=?`, hash)
	return err
}

func (r *Repo) CacheTotalBytes(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes),0) FROM file_cache`)
	var v int64
	if err := row.Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// CacheOldest returns the least recently accessed hash, or sql.ErrNoRows.
func (r *Repo) CacheOldest(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT hash FROM file_cache ORDER BY accessed_at ASC, hash ASC LIMIT 1`)
	var hash string
	if err := row.Scan(&hash); err != nil {
		return "", err
	}
	return hash, nil
}

// CacheList returns every indexed entry, most recently accessed first.
func (r *Repo) CacheList(ctx context.Context) ([]CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT hash, locator, bytes, accessed_at, created_at FROM file_cache ORDER BY accessed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CacheEntry
	for rows.Next() {
		var e CacheEntry
		var accessed, created int64
		if err := rows.Scan(&e.Hash, &e.Locator, &e.Bytes, &accessed, &created); err != nil {
			return nil, err
		}
		e.AccessedAt = time.Unix(0, accessed)
		e.CreatedAt = time.Unix(0, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
