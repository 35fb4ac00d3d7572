package database

import (
	"context"
	"database/sql"
	"errors"
)

// Metadata keys.
const (
	MetaSchemaVersion = "schema_version"
	MetaEngineVersion = "engine_version"
)

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// EngineVersion returns the last ffmpeg version line recorded, or "" when
// none was.
func (d *Database) EngineVersion(ctx context.Context) (string, error) {
	v, err := d.GetMetadata(ctx, MetaEngineVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetEngineVersion records the ffmpeg version line and reports whether it
// differs from the previous one.
func (d *Database) SetEngineVersion(ctx context.Context, version string) (bool, error) {
	prev, err := d.EngineVersion(ctx)
	if err != nil {
		return false, err
	}
	if prev == version {
		return false, nil
	}
	return true, d.SetMetadata(ctx, MetaEngineVersion, version)
}
