package registry

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"adsbtrack/internal/adsb"
)

// ZipDatabase is a registry stored as a zip archive of CSV files, one per pair of
// last hexadecimal digits of the address ("D6.csv" holds every address ending in D6).
// Each file is sorted by address.
type ZipDatabase struct {
	archive *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenZipDatabase opens the archive at path
func OpenZipDatabase(path string) (*ZipDatabase, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry %s: %w", path, err)
	}

	entries := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		entries[f.Name] = f
	}
	return &ZipDatabase{archive: archive, entries: entries}, nil
}

// Lookup returns the entry of addr, or ErrNotFound
func (d *ZipDatabase) Lookup(addr adsb.IcaoAddress) (AircraftInfo, error) {
	key := addr.String()
	if len(key) != 6 {
		return AircraftInfo{}, ErrNotFound
	}

	f, ok := d.entries[key[4:]+".csv"]
	if !ok {
		return AircraftInfo{}, ErrNotFound
	}

	rc, err := f.Open()
	if err != nil {
		return AircraftInfo{}, fmt.Errorf("failed to open registry entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return AircraftInfo{}, ErrNotFound
		}
		if err != nil {
			return AircraftInfo{}, fmt.Errorf("failed to read registry entry %s: %w", f.Name, err)
		}

		switch c := strings.Compare(record[0], key); {
		case c == 0:
			return parseRecord(record)
		case c > 0:
			return AircraftInfo{}, ErrNotFound
		}
	}
}

// Close releases the archive
func (d *ZipDatabase) Close() error {
	return d.archive.Close()
}
