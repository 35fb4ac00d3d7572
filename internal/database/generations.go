package database

import (
	"context"
	"database/sql"
	"time"
)

// InsertGeneration stores a finished generation and sets its ID.
// A zero CreatedAt is set to now.
func (d *Database) InsertGeneration(ctx context.Context, g *Generation) (err error) {
	start := time.Now()
	defer func() { recordQuery("insert_generation", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO generations (family, template, status, stage, error, duration_ms,
			input_bytes, output_bytes, source_digest, output_digest, audio_kept, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.Family, g.Template, g.Status, g.Stage, g.Error, g.DurationMS,
		g.InputBytes, g.OutputBytes, g.SourceDigest, g.OutputDigest, g.AudioKept, g.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}
	g.ID, err = res.LastInsertId()
	return err
}

// RecentGenerations returns up to limit records, newest first.
func (d *Database) RecentGenerations(ctx context.Context, limit int) (out []Generation, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_generations", start, err) }()

	if limit <= 0 {
		limit = 50
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, family, template, status, stage, error, duration_ms, input_bytes,
			output_bytes, source_digest, output_digest, audio_kept, created_at
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var g Generation
		var created int64
		if err = rows.Scan(&g.ID, &g.Family, &g.Template, &g.Status, &g.Stage, &g.Error, &g.DurationMS,
			&g.InputBytes, &g.OutputBytes, &g.SourceDigest, &g.OutputDigest, &g.AudioKept, &created); err != nil {
			return nil, err
		}
		g.CreatedAt = time.Unix(created, 0)
		out = append(out, g)
	}
	err = rows.Err()
	return out, err
}

// Stats aggregates the full history per family and template.
func (d *Database) Stats(ctx context.Context) (st Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT family, template,
			COUNT(*),
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN status = 'success' THEN duration_ms END), 0),
			COALESCE(SUM(output_bytes), 0)
		FROM generations
		GROUP BY family, template
		ORDER BY family, template
	`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	st.Templates = []TemplateStats{}
	for rows.Next() {
		var ts TemplateStats
		if err = rows.Scan(&ts.Family, &ts.Template, &ts.Total, &ts.Succeeded, &ts.AvgDurationMS, &ts.OutputBytes); err != nil {
			return st, err
		}
		ts.Failed = ts.Total - ts.Succeeded
		st.Total += ts.Total
		st.Succeeded += ts.Succeeded
		st.Failed += ts.Failed
		st.Templates = append(st.Templates, ts)
	}
	if err = rows.Err(); err != nil {
		return st, err
	}

	var last sql.NullInt64
	err = d.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM generations WHERE status = 'success'`).Scan(&last)
	if err != nil {
		return st, err
	}
	if last.Valid {
		t := time.Unix(last.Int64, 0)
		st.LastSuccess = &t
	}
	return st, nil
}

// Prune deletes records older than the cutoff and returns how many went.
func (d *Database) Prune(ctx context.Context, before time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, "DELETE FROM generations WHERE created_at < ?", before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
