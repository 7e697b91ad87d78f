package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"celltowers/internal/types"

	_ "github.com/sijms/go-ora/v2"
)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(username, password), // escapes automatically
		Host:   host + ":" + port,
		Path:   "/" + service, // keep full service name
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string

	TowersTable    string
	OperatorsTable string
}

// ErrBadCoordinate reports a NaN or infinite tower coordinate.
var ErrBadCoordinate = errors.New("non-finite coordinate")

// Database reads the tower and operator tables from Oracle.
type Database struct {
	db     *sql.DB
	config DBConfig
}

var identRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*(\.[A-Za-z][A-Za-z0-9_$#]*)?$`)

// validTable reports whether name is a plain (optionally schema-qualified)
// identifier. Table names are spliced into SQL text, so nothing else passes.
func validTable(name string) bool { return identRE.MatchString(name) }

// NewDatabase opens and pings an Oracle connection.
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, config)
}

// New wraps an already opened *sql.DB. The queries only use portable SQL, so
// any driver exposing the same tables works.
func New(db *sql.DB, config DBConfig) (*Database, error) {
	if config.TowersTable == "" {
		config.TowersTable = "TOWERS"
	}
	if config.OperatorsTable == "" {
		config.OperatorsTable = "MCC_MNC"
	}
	for _, name := range []string{config.TowersTable, config.OperatorsTable} {
		if !validTable(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return &Database{db: db, config: config}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) towersQuery() string {
	return `
		SELECT
			RADIO, MCC, MNC, COALESCE(LAC, 0), CID, LON, LAT,
			COALESCE(CELL_RANGE, 0), COALESCE(SAMPLES, 0), CHANGEABLE,
			COALESCE(AVERAGE_SIGNAL, 0), COALESCE(CREATED, 0), COALESCE(UPDATED, 0)
		FROM ` + d.config.TowersTable + `
		ORDER BY MCC, MNC, CID`
}

func (d *Database) operatorsQuery() string {
	return `
		SELECT MCC, MNC, COALESCE(OPERATOR, ''), COALESCE(CIRCLE, '')
		FROM ` + d.config.OperatorsTable + `
		ORDER BY MCC, MNC`
}

// Towers reads every tower row.
func (d *Database) Towers(ctx context.Context) ([]types.TowerRecord, error) {
	rows, err := d.db.QueryContext(ctx, d.towersQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query towers: %w", err)
	}
	defer rows.Close()

	var towers []types.TowerRecord
	for rows.Next() {
		var (
			t        types.TowerRecord
			mcc, mnc int64
			changeab int64
		)
		err := rows.Scan(
			&t.Radio, &mcc, &mnc, &t.LAC, &t.CID, &t.Lon, &t.Lat,
			&t.Range, &t.Samples, &changeab,
			&t.AverageSignal, &t.Created, &t.Updated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tower: %w", err)
		}
		if !finite(t.Lat) || !finite(t.Lon) {
			return nil, fmt.Errorf("tower %d (lat %v, lon %v): %w", t.CID, t.Lat, t.Lon, ErrBadCoordinate)
		}
		t.Radio = strings.TrimSpace(t.Radio)
		t.MCC, t.MNC, t.Changeable = int(mcc), int(mnc), int(changeab)
		towers = append(towers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read towers: %w", err)
	}
	return towers, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Operators reads the (mcc, mnc) → operator/circle mapping.
func (d *Database) Operators(ctx context.Context) ([]types.OperatorMapping, error) {
	rows, err := d.db.QueryContext(ctx, d.operatorsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query operators: %w", err)
	}
	defer rows.Close()

	var mappings []types.OperatorMapping
	for rows.Next() {
		var (
			m        types.OperatorMapping
			mcc, mnc int64
		)
		if err := rows.Scan(&mcc, &mnc, &m.Operator, &m.Circle); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		m.MCC, m.MNC = int(mcc), int(mnc)
		m.Operator = strings.TrimSpace(m.Operator)
		m.Circle = strings.TrimSpace(m.Circle)
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read operators: %w", err)
	}
	return mappings, nil
}
