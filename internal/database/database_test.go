package database

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestDSN(t *testing.T) {
	got := dsn("scott", "p@ss/word", "db.example.com", "1522", "svc_high", "")
	if !strings.HasPrefix(got, "oracle://scott:") || !strings.HasSuffix(got, "@db.example.com:1522/svc_high") {
		t.Fatalf("dsn = %q", got)
	}
	if strings.Contains(got, "p@ss/word") {
		t.Fatalf("password not escaped: %q", got)
	}

	wallet := dsn("scott", "tiger", "h", "1522", "svc", "/opt/wallet dir")
	if !strings.Contains(wallet, "ssl=true") || !strings.Contains(wallet, "wallet_location=%2Fopt%2Fwallet%20dir") {
		t.Fatalf("wallet dsn = %q", wallet)
	}
}

func TestNewRejectsBadTableNames(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"TOWERS", true},
		{"CELLS.TOWERS_405", true},
		{"towers; DROP TABLE x", false},
		{"1TOWERS", false},
		{"a.b.c", false},
	}
	for _, tt := range tests {
		_, err := New(nil, DBConfig{TowersTable: tt.name})
		if (err == nil) != tt.ok {
			t.Errorf("New(%q) err = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func openFixture(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE TOWERS (RADIO TEXT, MCC INTEGER, MNC INTEGER, LAC INTEGER, CID INTEGER,
			LON REAL, LAT REAL, CELL_RANGE INTEGER, SAMPLES INTEGER, CHANGEABLE INTEGER,
			AVERAGE_SIGNAL INTEGER, CREATED INTEGER, UPDATED INTEGER)`,
		`CREATE TABLE MCC_MNC (MCC INTEGER, MNC INTEGER, OPERATOR TEXT, CIRCLE TEXT)`,
		`INSERT INTO TOWERS VALUES (' LTE', 405, 854, 100, 2001, 77.2, 28.6, 1000, 3, 0, NULL, 1500000000, 1600000000)`,
		`INSERT INTO TOWERS VALUES ('GSM', 404, 10, NULL, 2002, 72.8, 19.0, NULL, NULL, 1, 0, NULL, NULL)`,
		`INSERT INTO MCC_MNC VALUES (405, 854, 'Jio', 'Delhi')`,
		`INSERT INTO MCC_MNC VALUES (404, 10, 'Airtel', NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return db
}

func TestTowersAndOperators(t *testing.T) {
	d, err := New(openFixture(t), DBConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	towers, err := d.Towers(ctx)
	if err != nil {
		t.Fatalf("Towers: %v", err)
	}
	if len(towers) != 2 {
		t.Fatalf("len(towers) = %d, want 2", len(towers))
	}
	// ORDER BY MCC puts 404 first.
	if towers[0].MCC != 404 || towers[0].Changeable != 1 || towers[0].Range != 0 {
		t.Fatalf("towers[0] = %+v", towers[0])
	}
	if towers[1].Radio != "LTE" || towers[1].CID != 2001 || towers[1].Lat != 28.6 || towers[1].Created != 1500000000 {
		t.Fatalf("towers[1] = %+v", towers[1])
	}

	ops, err := d.Operators(ctx)
	if err != nil {
		t.Fatalf("Operators: %v", err)
	}
	if len(ops) != 2 || ops[0].Operator != "Airtel" || ops[0].Circle != "" || ops[1].Circle != "Delhi" {
		t.Fatalf("operators = %+v", ops)
	}
}

func TestTowersMissingTable(t *testing.T) {
	d, err := New(openFixture(t), DBConfig{TowersTable: "NOPE"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.Towers(context.Background()); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestTowersRejectsInfiniteCoordinates(t *testing.T) {
	db := openFixture(t)
	if _, err := db.Exec(`INSERT INTO TOWERS VALUES ('LTE', 405, 854, 1, 2003, 77.2, ?, 0, 0, 0, 0, 0, 0)`, math.Inf(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d, err := New(db, DBConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.Towers(context.Background()); !errors.Is(err, ErrBadCoordinate) {
		t.Fatalf("err = %v, want ErrBadCoordinate", err)
	}
}
