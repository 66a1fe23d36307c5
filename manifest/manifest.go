// Package manifest reads the Bungie content database, a SQLite file holding
// JSON definition blobs keyed by content hash. Lookups resolve hashes to
// display names for maps, weapons, and medals. Every miss is non-fatal;
// callers substitute placeholders.
package manifest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Only want to import the driver here
)

// Filename is the expected name of the manifest file inside the caller
// supplied directory.
const Filename = "manifest.sqlite3"

// Manifest is a read-only handle on the content database.
type Manifest struct {
	database *sql.DB
}

// Open opens the manifest file read-only. The file is produced by Bungie and
// never written by this process.
func Open(path string) (*Manifest, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest: %s", path)
	}

	return &Manifest{database: database}, nil
}

// Close releases the underlying connection.
func (manifest *Manifest) Close() error {
	return manifest.database.Close()
}

// normalizeHash maps a 32 bit content hash to the signed value the manifest
// tables key on. Hashes with the high bit set are stored as negative ids.
func normalizeHash(hash uint32) int64 {
	if hash > math.MaxInt32 {
		return int64(hash) - (1 << 32)
	}

	return int64(hash)
}

// definitionJSON reads the raw JSON blob for an id out of a definition table.
// A missing row returns nil with no error.
func (manifest *Manifest) definitionJSON(table string, id interface{}) ([]byte, error) {
	var data []byte
	err := manifest.database.QueryRow(
		fmt.Sprintf("SELECT json FROM %s WHERE id = ?", table), id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s definition", table)
	}

	return data, nil
}

// ActivityDefinition looks up the playlist or map definition for a hash. A
// nil definition with a nil error means the hash isn't in the manifest.
func (manifest *Manifest) ActivityDefinition(hash uint32) (*ActivityDefinition, error) {
	data, err := manifest.definitionJSON("DestinyActivityDefinition", normalizeHash(hash))
	if err != nil || data == nil {
		return nil, err
	}

	definition := &ActivityDefinition{}
	if err := json.Unmarshal(data, definition); err != nil {
		return nil, errors.Wrap(err, "failed to parse activity definition")
	}

	return definition, nil
}

// InventoryItemDefinition looks up a weapon or item definition for a hash.
func (manifest *Manifest) InventoryItemDefinition(hash uint32) (*InventoryItemDefinition, error) {
	data, err := manifest.definitionJSON("DestinyInventoryItemDefinition", normalizeHash(hash))
	if err != nil || data == nil {
		return nil, err
	}

	definition := &InventoryItemDefinition{}
	if err := json.Unmarshal(data, definition); err != nil {
		return nil, errors.Wrap(err, "failed to parse inventory item definition")
	}

	return definition, nil
}

// HistoricalStatsDefinition looks up a stat definition, which is how medals
// are named. These are keyed by string id rather than hash.
func (manifest *Manifest) HistoricalStatsDefinition(id string) (*HistoricalStatsDefinition, error) {
	var data []byte
	err := manifest.database.QueryRow(
		"SELECT json FROM DestinyHistoricalStatsDefinition WHERE key = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to read historical stats definition")
	}

	definition := &HistoricalStatsDefinition{}
	if err := json.Unmarshal(data, definition); err != nil {
		return nil, errors.Wrap(err, "failed to parse historical stats definition")
	}

	return definition, nil
}
