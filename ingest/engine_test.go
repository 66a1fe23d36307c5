package ingest

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/models"
)

// fakeAPI is an in-memory BungieAPI. History is keyed by mode family and
// served to every character; carnage reports come from the pgcrs map.
type fakeAPI struct {
	member     *models.Member
	characters []*models.Character
	infoErr    error

	history    map[models.Mode][]*bungie.ActivityHistoryEntry
	historyErr map[models.Mode]error

	pgcrs    map[int64]*bungie.PostGameCarnageReport
	pgcrErrs map[int64]error

	// GetPGCR runs from many goroutines at once.
	mu      sync.Mutex
	fetched []int64

	group    []*models.Member
	profiles []*bungie.LinkedProfile
}

func (api *fakeAPI) ResolvePlayer(ctx context.Context, name *models.PlayerName) (*models.Member, error) {
	return api.member, nil
}

func (api *fakeAPI) GetLinkedProfiles(ctx context.Context, memberID int64,
	platform models.Platform) ([]*bungie.LinkedProfile, error) {
	return api.profiles, nil
}

func (api *fakeAPI) ListGroupMembers(ctx context.Context, groupID int64) ([]*models.Member, error) {
	return api.group, nil
}

func (api *fakeAPI) GetPlayerInfo(ctx context.Context, memberID int64,
	platform models.Platform) (*bungie.PlayerInfo, error) {
	if api.infoErr != nil {
		return nil, api.infoErr
	}

	return &bungie.PlayerInfo{Member: api.member, Characters: api.characters}, nil
}

func (api *fakeAPI) ListActivitiesSinceID(ctx context.Context, memberID, characterID int64,
	platform models.Platform, mode models.Mode, sentinelID int64) ([]*bungie.ActivityHistoryEntry, error) {
	if err := api.historyErr[mode]; err != nil {
		return nil, err
	}

	// Serve only what is newer than the sentinel, newest first like the
	// real endpoint.
	var entries []*bungie.ActivityHistoryEntry
	for _, entry := range api.history[mode] {
		id, _ := entry.ActivityDetails.InstanceIDInt()
		if id == sentinelID {
			break
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (api *fakeAPI) GetPGCR(ctx context.Context, instanceID int64) (*bungie.PostGameCarnageReport, error) {
	api.mu.Lock()
	api.fetched = append(api.fetched, instanceID)
	api.mu.Unlock()
	if err := api.pgcrErrs[instanceID]; err != nil {
		return nil, err
	}

	return api.pgcrs[instanceID], nil
}

func testMember() *models.Member {
	return &models.Member{
		ID:       1,
		Platform: models.PlatformSteam,
		Name: models.PlayerName{
			DisplayName:           "player",
			BungieDisplayName:     "player",
			BungieDisplayNameCode: "1234",
		},
	}
}

func historyEntry(instanceID int64, hash uint32, mode models.Mode) *bungie.ActivityHistoryEntry {
	return &bungie.ActivityHistoryEntry{
		Period: time.Now().UTC(),
		ActivityDetails: bungie.ActivityDetails{
			InstanceID:           strconv.FormatInt(instanceID, 10),
			DirectorActivityHash: hash,
			Mode:                 mode,
			Modes:                []models.Mode{mode},
		},
	}
}

func testPGCR(instanceID int64, mode models.Mode, modes []models.Mode) *bungie.PostGameCarnageReport {
	code := 1234
	return &bungie.PostGameCarnageReport{
		Period: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
		ActivityDetails: bungie.ActivityDetails{
			InstanceID:           strconv.FormatInt(instanceID, 10),
			DirectorActivityHash: 777,
			ReferenceID:          555,
			Mode:                 mode,
			Modes:                modes,
			MembershipType:       int(models.PlatformSteam),
		},
		Entries: []*bungie.PGCREntry{
			{
				CharacterID: "10",
				Player: bungie.PGCRPlayer{
					DestinyUserInfo: bungie.UserInfoCard{
						MembershipID:                "1",
						MembershipType:              int(models.PlatformSteam),
						CrossSaveOverride:           int(models.PlatformSteam),
						DisplayName:                 "player",
						BungieGlobalDisplayName:     "player",
						BungieGlobalDisplayNameCode: &code,
					},
					CharacterClass: "Hunter",
				},
				Values: map[string]bungie.StatValue{},
			},
		},
	}
}

func testEngine(t *testing.T, api *fakeAPI) (*Engine, *db.Store) {
	t.Helper()

	store, err := db.OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewEngine(api, store, false), store
}

func pvpModes(mode models.Mode) []models.Mode {
	return []models.Mode{mode, models.ModeAllPvP}
}

func TestSyncMemberEndToEnd(t *testing.T) {
	api := &fakeAPI{
		member:     testMember(),
		characters: []*models.Character{{ID: 10, MemberID: 1, Class: models.ClassHunter}},
		history: map[models.Mode][]*bungie.ActivityHistoryEntry{
			models.ModeAllPvP: {
				historyEntry(300, 1, models.ModeControl),
				historyEntry(200, 1, models.ModeControl),
				historyEntry(100, 1, models.ModeControl),
			},
		},
		pgcrs: map[int64]*bungie.PostGameCarnageReport{
			100: testPGCR(100, models.ModeControl, pvpModes(models.ModeControl)),
			200: testPGCR(200, models.ModeControl, pvpModes(models.ModeControl)),
			300: testPGCR(300, models.ModeControl, pvpModes(models.ModeControl)),
		},
	}

	engine, store := testEngine(t, api)
	result, err := engine.SyncMember(context.Background(), testMember())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSynced)
	assert.Equal(t, 0, result.TotalAvailable)

	for _, id := range []int64{100, 200, 300} {
		exists, err := store.HasActivity(id)
		require.NoError(t, err)
		assert.True(t, exists, "activity %d should be stored", id)
	}

	ids, err := store.UnsyncedQueueIDs(10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// A second sync discovers nothing past the sentinel and fetches nothing
	// new.
	fetchedBefore := len(api.fetched)
	result, err = engine.SyncMember(context.Background(), testMember())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalSynced)
	assert.Equal(t, fetchedBefore, len(api.fetched))
}

func TestDiscoveryQueuesOldestFirstAndFiltersGambit(t *testing.T) {
	gambitHash := uint32(2526740498)
	api := &fakeAPI{
		member:     testMember(),
		characters: []*models.Character{{ID: 10, MemberID: 1, Class: models.ClassHunter}},
		history: map[models.Mode][]*bungie.ActivityHistoryEntry{
			models.ModeAllPvP: {
				historyEntry(30, 1, models.ModeControl),
				historyEntry(25, gambitHash, models.ModeControl),
				historyEntry(20, 1, models.ModeControl),
				historyEntry(10, 1, models.ModeControl),
			},
		},
	}

	engine, store := testEngine(t, api)
	character := &models.Character{ID: 10, MemberID: 1, Class: models.ClassHunter}

	queued, err := engine.updateActivityQueue(context.Background(), testMember(),
		character, models.ModeAllPvP)
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	ids, err := store.UnsyncedQueueIDs(10)
	require.NoError(t, err)

	// Chronological order, with the gambit contamination dropped.
	assert.Equal(t, []int64{10, 20, 30}, ids)
}

func TestSyncActivitiesToleratesPartialFailure(t *testing.T) {
	api := &fakeAPI{
		member:     testMember(),
		characters: []*models.Character{{ID: 10, MemberID: 1, Class: models.ClassHunter}},
		pgcrs: map[int64]*bungie.PostGameCarnageReport{
			100: testPGCR(100, models.ModeControl, pvpModes(models.ModeControl)),
			// 300 stays nil: success envelope with an empty response.
		},
		pgcrErrs: map[int64]error{200: errors.New("upstream timeout")},
	}

	engine, store := testEngine(t, api)
	character := &models.Character{ID: 10, MemberID: 1, Class: models.ClassHunter}
	require.NoError(t, store.EnqueueActivities(10, []int64{100, 200, 300}))

	synced, err := engine.syncActivities(context.Background(), character)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	// The failed and empty instances stay queued for the next pass.
	ids, err := store.UnsyncedQueueIDs(10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{200, 300}, ids)
}

func TestSyncActivitiesSkipsAlreadyStoredInstances(t *testing.T) {
	api := &fakeAPI{
		member: testMember(),
		pgcrs: map[int64]*bungie.PostGameCarnageReport{
			100: testPGCR(100, models.ModeControl, pvpModes(models.ModeControl)),
		},
	}

	engine, store := testEngine(t, api)

	// Another character already stored instance 100.
	require.NoError(t, store.EnqueueActivities(20, []int64{100}))
	require.NoError(t, store.InsertActivity(api.pgcrs[100], 20, nil))

	character := &models.Character{ID: 10, MemberID: 1, Class: models.ClassHunter}
	require.NoError(t, store.EnqueueActivities(10, []int64{100}))

	synced, err := engine.syncActivities(context.Background(), character)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Empty(t, api.fetched)

	ids, err := store.UnsyncedQueueIDs(10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSyncActivitiesCancelledIssuesNoChunks(t *testing.T) {
	api := &fakeAPI{
		member: testMember(),
		pgcrs: map[int64]*bungie.PostGameCarnageReport{
			100: testPGCR(100, models.ModeControl, pvpModes(models.ModeControl)),
		},
	}

	engine, store := testEngine(t, api)
	character := &models.Character{ID: 10, MemberID: 1, Class: models.ClassHunter}
	require.NoError(t, store.EnqueueActivities(10, []int64{100}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synced, err := engine.syncActivities(ctx, character)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Empty(t, api.fetched)

	ids, err := store.UnsyncedQueueIDs(10)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, ids)
}

func TestDiscoveryFailureDoesNotStarveOtherFamilies(t *testing.T) {
	api := &fakeAPI{
		member:     testMember(),
		characters: []*models.Character{{ID: 10, MemberID: 1, Class: models.ClassHunter}},
		history: map[models.Mode][]*bungie.ActivityHistoryEntry{
			models.ModeAllPvP: {historyEntry(100, 1, models.ModeControl)},
			models.ModeIronBannerZoneControl: {
				historyEntry(200, 1, models.ModeIronBannerZoneControl),
			},
		},
		historyErr: map[models.Mode]error{
			models.ModeAllPvP: errors.New("upstream down"),
		},
		pgcrs: map[int64]*bungie.PostGameCarnageReport{
			200: testPGCR(200, models.ModeIronBannerZoneControl,
				[]models.Mode{models.ModeIronBannerZoneControl}),
		},
	}

	engine, store := testEngine(t, api)
	result, err := engine.SyncMember(context.Background(), testMember())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalSynced)
	exists, err := store.HasActivity(200)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSyncAllContinuesAfterMemberFailure(t *testing.T) {
	api := &fakeAPI{
		member:  testMember(),
		infoErr: errors.New("profile unavailable"),
	}

	engine, store := testEngine(t, api)
	require.NoError(t, store.UpsertMember(testMember()))
	require.NoError(t, store.UpsertSyncSubscription(1, time.Unix(0, 0)))

	result, err := engine.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalSynced)
}

func TestAddGroupSkipsInvalidNames(t *testing.T) {
	valid := testMember()
	invalid := &models.Member{ID: 2, Platform: models.PlatformSteam}

	api := &fakeAPI{member: valid, group: []*models.Member{valid, invalid}}
	engine, store := testEngine(t, api)

	added, err := engine.AddGroup(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	members, err := store.SyncSubscriptions()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(1), members[0].ID)
}
