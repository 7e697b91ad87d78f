package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"celltowers/internal/pipeline"
)

const snapshotSchema = `
CREATE TABLE towers (
    radio    TEXT    NOT NULL,
    mcc      INTEGER NOT NULL,
    mnc      INTEGER NOT NULL,
    cid      INTEGER NOT NULL,
    long     REAL    NOT NULL,
    lat      REAL    NOT NULL,
    operator TEXT    NOT NULL,
    circle   TEXT    NOT NULL
);
CREATE INDEX towers_circle ON towers (circle);
CREATE TABLE operator_counts (operator TEXT PRIMARY KEY, towers INTEGER NOT NULL);
CREATE TABLE circle_counts (circle TEXT PRIMARY KEY, towers INTEGER NOT NULL);
CREATE TABLE tech_mix (
    operator TEXT    NOT NULL,
    circle   TEXT    NOT NULL,
    radio    TEXT    NOT NULL,
    towers   INTEGER NOT NULL,
    PRIMARY KEY (operator, circle, radio)
);`

// WriteSQLite replaces dir/towers.db with a snapshot of the corrected table
// and the aggregates. It returns the file path.
func WriteSQLite(ctx context.Context, dir string, res *pipeline.Result) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SQLiteFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if err := writeSnapshot(ctx, db, res); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeSnapshot(ctx context.Context, db *sql.DB, res *pipeline.Result) error {
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO towers VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range res.Clean.Corrected {
		if _, err := stmt.ExecContext(ctx, r.Radio, r.MCC, r.MNC, r.CID, r.Lon, r.Lat, r.Operator, r.Circle); err != nil {
			return err
		}
	}

	for _, c := range res.ByOperator {
		if _, err := tx.ExecContext(ctx, `INSERT INTO operator_counts VALUES (?, ?)`, c.Key, c.Count); err != nil {
			return err
		}
	}
	for _, c := range res.ByCircle {
		if _, err := tx.ExecContext(ctx, `INSERT INTO circle_counts VALUES (?, ?)`, c.Key, c.Count); err != nil {
			return err
		}
	}
	for _, m := range res.TechMix {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tech_mix VALUES (?, ?, ?, ?)`, m.Operator, m.Circle, m.Radio, m.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}
