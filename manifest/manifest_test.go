package manifest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikechambers/dcli-sub000/models"
)

// newTestManifest writes a tiny manifest file with the definition tables the
// lookups read.
func newTestManifest(t *testing.T) *Manifest {
	t.Helper()

	path := filepath.Join(t.TempDir(), Filename)
	database, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)

	_, err = database.Exec(`
        CREATE TABLE DestinyActivityDefinition (id INTEGER PRIMARY KEY, json BLOB);
        CREATE TABLE DestinyInventoryItemDefinition (id INTEGER PRIMARY KEY, json BLOB);
        CREATE TABLE DestinyHistoricalStatsDefinition (key TEXT PRIMARY KEY, json BLOB);`)
	require.NoError(t, err)

	// 3098328572 has the high bit set, so it is stored under its signed id.
	_, err = database.Exec(
		"INSERT INTO DestinyActivityDefinition (id, json) VALUES (?, ?)",
		int64(3098328572)-(1<<32),
		`{"displayProperties":{"name":"Midtown","description":"Clash on Midtown"}}`)
	require.NoError(t, err)

	_, err = database.Exec(
		"INSERT INTO DestinyInventoryItemDefinition (id, json) VALUES (?, ?)",
		int64(555),
		`{"displayProperties":{"name":"Rose"},"itemType":3,"itemSubType":9}`)
	require.NoError(t, err)

	_, err = database.Exec(
		"INSERT INTO DestinyHistoricalStatsDefinition (key, json) VALUES (?, ?)",
		"medalStreak5x",
		`{"statId":"medalStreak5x","statName":"Merciless","statDescription":"Shut it down","medalTierHash":"medaltier3"}`)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	manifest, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { manifest.Close() })
	return manifest
}

func TestActivityDefinitionSignedHashNormalization(t *testing.T) {
	manifest := newTestManifest(t)

	definition, err := manifest.ActivityDefinition(3098328572)
	require.NoError(t, err)
	require.NotNil(t, definition)
	assert.Equal(t, "Midtown", definition.DisplayProperties.Name)
}

func TestInventoryItemDefinition(t *testing.T) {
	manifest := newTestManifest(t)

	definition, err := manifest.InventoryItemDefinition(555)
	require.NoError(t, err)
	require.NotNil(t, definition)
	assert.Equal(t, "Rose", definition.DisplayProperties.Name)
	assert.Equal(t, models.ItemTypeWeapon, definition.ItemType)
	assert.Equal(t, models.ItemSubTypeHandCannon, definition.ItemSubType)
}

func TestHistoricalStatsDefinition(t *testing.T) {
	manifest := newTestManifest(t)

	definition, err := manifest.HistoricalStatsDefinition("medalStreak5x")
	require.NoError(t, err)
	require.NotNil(t, definition)
	assert.Equal(t, "Merciless", definition.StatName)
	assert.Equal(t, models.MedalTier3, definition.Tier())
}

func TestLookupMissesAreNonFatal(t *testing.T) {
	manifest := newTestManifest(t)

	definition, err := manifest.ActivityDefinition(1)
	require.NoError(t, err)
	assert.Nil(t, definition)

	item, err := manifest.InventoryItemDefinition(1)
	require.NoError(t, err)
	assert.Nil(t, item)

	stat, err := manifest.HistoricalStatsDefinition("nope")
	require.NoError(t, err)
	assert.Nil(t, stat)
}
