// Package metadata resolves an ICAO address to registration,
// manufacturer, and assigned callsign information from a local
// database, so the tracker can enrich a record the moment it's
// created instead of showing a bare hex address.
package metadata

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Record is one aircraft's static metadata.
type Record struct {
	Registration string
	Manufacturer string
	CallSign     string
}

// Store looks up Records by ICAO address.
type Store interface {
	Lookup(addr uint32) (Record, bool)
}

// CSVStore loads the entire database into memory from a CSV file whose
// first four columns are hex address, registration, manufacturer, and
// callsign; further columns are ignored.
type CSVStore struct {
	records map[uint32]Record
}

// LoadCSV reads path fully into memory. The first row is assumed to
// be a header and is skipped.
func LoadCSV(path string) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	store := &CSVStore{records: make(map[uint32]Record)}
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("metadata: read csv: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 4 {
			continue
		}
		addr, err := strconv.ParseUint(strings.TrimSpace(row[0]), 16, 32)
		if err != nil {
			continue
		}
		store.records[uint32(addr)] = Record{
			Registration: strings.TrimSpace(row[1]),
			Manufacturer: strings.TrimSpace(row[2]),
			CallSign:     strings.TrimSpace(row[3]),
		}
	}
	return store, nil
}

// Lookup implements Store.
func (c *CSVStore) Lookup(addr uint32) (Record, bool) {
	rec, ok := c.records[addr]
	return rec, ok
}

// SQLiteStore queries an on-disk SQLite database per lookup, for
// databases too large to comfortably hold in memory.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path via the pure-Go modernc.org/sqlite driver in
// the driver's default mode; the connection is not opened read-only.
// Lookup only issues SELECT queries.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Lookup implements Store.
func (s *SQLiteStore) Lookup(addr uint32) (Record, bool) {
	row := s.db.QueryRow(
		`SELECT Registration, Manufacturer, RegisteredOwners FROM Aircraft WHERE ModeS = ?`,
		fmt.Sprintf("%06X", addr),
	)
	var rec Record
	if err := row.Scan(&rec.Registration, &rec.Manufacturer, &rec.CallSign); err != nil {
		return Record{}, false
	}
	return rec, true
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AsLookup adapts a Store into the tracker.MetadataLookup function
// signature.
func AsLookup(s Store) func(addr uint32) (registration, manufacturer, callSign string, ok bool) {
	return func(addr uint32) (string, string, string, bool) {
		rec, ok := s.Lookup(addr)
		if !ok {
			return "", "", "", false
		}
		return rec.Registration, rec.Manufacturer, rec.CallSign, true
	}
}
