package registry

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"

	"adsbtrack/internal/adsb"
)

const createAircraftTable = `CREATE TABLE IF NOT EXISTS aircraft (
	icao            TEXT PRIMARY KEY,
	registration    TEXT NOT NULL,
	type_designator TEXT NOT NULL,
	model           TEXT NOT NULL,
	description     TEXT NOT NULL,
	wtc             TEXT NOT NULL
)`

// SQLiteDatabase is a registry stored in the aircraft table of an SQLite database
type SQLiteDatabase struct {
	db *sql.DB
}

// OpenSQLiteDatabase opens (and creates if needed) the database at path
func OpenSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry %s: %w", path, err)
	}
	// an in-memory database only lives as long as its connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createAircraftTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create aircraft table: %w", err)
	}
	return &SQLiteDatabase{db: db}, nil
}

// Lookup returns the entry of addr, or ErrNotFound
func (d *SQLiteDatabase) Lookup(addr adsb.IcaoAddress) (AircraftInfo, error) {
	var info AircraftInfo
	var wtc string

	err := d.db.QueryRow(
		`SELECT registration, type_designator, model, description, wtc FROM aircraft WHERE icao = ?`,
		addr.String(),
	).Scan(&info.Registration, &info.TypeDesignator, &info.Model, &info.Description, &wtc)
	if errors.Is(err, sql.ErrNoRows) {
		return AircraftInfo{}, ErrNotFound
	}
	if err != nil {
		return AircraftInfo{}, fmt.Errorf("failed to query registry: %w", err)
	}

	info.WakeTurbulence = ParseWakeTurbulenceCategory(wtc)
	return info, nil
}

// Insert adds or replaces the entry of addr
func (d *SQLiteDatabase) Insert(addr adsb.IcaoAddress, info AircraftInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO aircraft (icao, registration, type_designator, model, description, wtc) VALUES (?, ?, ?, ?, ?, ?)`,
		addr.String(), info.Registration, info.TypeDesignator, info.Model, info.Description, info.WakeTurbulence.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", addr, err)
	}
	return nil
}

// ImportCSV inserts every record of r, in the registry CSV format, within one
// transaction and returns the number of records imported
func (d *SQLiteDatabase) ImportCSV(r io.Reader) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft (icao, registration, type_designator, model, description, wtc) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	count := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read registry CSV: %w", err)
		}

		addr, err := adsb.ParseIcaoAddress(record[0])
		if err != nil {
			return count, err
		}
		info, err := parseRecord(record)
		if err != nil {
			return count, err
		}
		if _, err := stmt.Exec(addr.String(), info.Registration, info.TypeDesignator, info.Model, info.Description, info.WakeTurbulence.String()); err != nil {
			return count, fmt.Errorf("failed to insert %s: %w", addr, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("failed to commit import: %w", err)
	}
	return count, nil
}

// Close closes the database
func (d *SQLiteDatabase) Close() error {
	return d.db.Close()
}
