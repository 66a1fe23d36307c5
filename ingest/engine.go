// Package ingest drives the sync pipeline: discover new activity instance
// ids for each tracked character, queue them, fetch the carnage reports with
// bounded concurrency, repair known upstream misclassifications, and persist
// everything through the store.
package ingest

import (
	"context"
	"time"

	"github.com/kpango/glg"
	"golang.org/x/sync/errgroup"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/models"
)

// BungieAPI is the slice of the remote API the engine consumes. *bungie.API
// satisfies it; tests substitute a fake.
type BungieAPI interface {
	ResolvePlayer(ctx context.Context, name *models.PlayerName) (*models.Member, error)
	GetLinkedProfiles(ctx context.Context, memberID int64, platform models.Platform) ([]*bungie.LinkedProfile, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]*models.Member, error)
	GetPlayerInfo(ctx context.Context, memberID int64, platform models.Platform) (*bungie.PlayerInfo, error)
	ListActivitiesSinceID(ctx context.Context, memberID, characterID int64,
		platform models.Platform, mode models.Mode, sentinelID int64) ([]*bungie.ActivityHistoryEntry, error)
	GetPGCR(ctx context.Context, instanceID int64) (*bungie.PostGameCarnageReport, error)
}

// discoveryFamilies are the mode families each character is walked under.
// Private matches and Iron Banner Zone Control live outside the AllPvP
// family upstream, so each needs its own discovery pass.
var discoveryFamilies = []models.Mode{
	models.ModePrivateMatchesAll,
	models.ModeAllPvP,
	models.ModeIronBannerZoneControl,
}

// SyncResult reports what one sync accomplished: how many activities were
// stored and how many remain queued for a later pass.
type SyncResult struct {
	TotalSynced    int
	TotalAvailable int
}

func (result *SyncResult) add(other *SyncResult) {
	result.TotalSynced += other.TotalSynced
	result.TotalAvailable += other.TotalAvailable
}

// Engine owns the sync pipeline. It is the single writer on the store; the
// caller sequences it against any readers.
type Engine struct {
	api            BungieAPI
	store          *db.Store
	fixCorruptData bool
}

// NewEngine wires the engine to its collaborators. fixCorruptData enables
// remote member repair for incomplete PGCR observations.
func NewEngine(api BungieAPI, store *db.Store, fixCorruptData bool) *Engine {
	return &Engine{api: api, store: store, fixCorruptData: fixCorruptData}
}

// AddMember resolves a bungie name, stores the member, and subscribes it for
// sync passes.
func (engine *Engine) AddMember(ctx context.Context, name *models.PlayerName) (*models.Member, error) {
	member, err := engine.api.ResolvePlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, bungie.ErrBungieNameNotFound
	}

	if err := engine.subscribe(member); err != nil {
		return nil, err
	}

	return member, nil
}

// AddGroup subscribes every member of a clan roster that carries a valid
// bungie name. Returns how many members were subscribed.
func (engine *Engine) AddGroup(ctx context.Context, groupID int64) (int, error) {
	members, err := engine.api.ListGroupMembers(ctx, groupID)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, member := range members {
		if !member.Name.HasValidBungieName() {
			glg.Warnf("Skipping group member %d without a valid bungie name", member.ID)
			continue
		}

		if err := engine.subscribe(member); err != nil {
			glg.Errorf("Failed to subscribe group member %d: %s", member.ID, err.Error())
			continue
		}
		added++
	}

	return added, nil
}

func (engine *Engine) subscribe(member *models.Member) error {
	if err := engine.store.UpsertMember(member); err != nil {
		return err
	}

	return engine.store.UpsertSyncSubscription(member.ID, time.Unix(0, 0))
}

// SyncMember runs one full sync for a member: profile refresh, then for each
// character a drain pass, discovery across all mode families, and a second
// drain pass picking up what discovery queued.
func (engine *Engine) SyncMember(ctx context.Context, member *models.Member) (*SyncResult, error) {
	info, err := engine.api.GetPlayerInfo(ctx, member.ID, member.Platform)
	if err != nil {
		return nil, err
	}

	if err := engine.store.UpsertMember(info.Member); err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, character := range info.Characters {
		if err := engine.store.UpsertCharacter(character); err != nil {
			return nil, err
		}

		characterResult, err := engine.syncCharacter(ctx, info.Member, character)
		if err != nil {
			return nil, err
		}
		result.add(characterResult)

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	if err := engine.store.UpsertSyncSubscription(member.ID, time.Now()); err != nil {
		glg.Warnf("Failed to stamp sync time for member %d: %s", member.ID, err.Error())
	}

	return result, nil
}

// syncCharacter is the two-pass loop: drain whatever an earlier run left in
// the queue, discover new instances, drain again.
func (engine *Engine) syncCharacter(ctx context.Context, member *models.Member,
	character *models.Character) (*SyncResult, error) {

	result := &SyncResult{}

	synced, err := engine.syncActivities(ctx, character)
	if err != nil {
		return nil, err
	}
	result.TotalSynced += synced

	for _, family := range discoveryFamilies {
		available, err := engine.updateActivityQueue(ctx, member, character, family)
		if err != nil {
			// One family failing must not starve the others of discovery.
			glg.Errorf("Discovery for character %d mode %s failed: %s",
				character.ID, family, err.Error())
			continue
		}
		result.TotalAvailable += available
	}

	synced, err = engine.syncActivities(ctx, character)
	if err != nil {
		return nil, err
	}
	result.TotalSynced += synced
	result.TotalAvailable -= synced
	if result.TotalAvailable < 0 {
		result.TotalAvailable = 0
	}

	return result, nil
}

// updateActivityQueue walks one mode family's history since the last queued
// instance and queues everything new, oldest first. Returns how many
// instances were queued.
func (engine *Engine) updateActivityQueue(ctx context.Context, member *models.Member,
	character *models.Character, family models.Mode) (int, error) {

	// Iron Banner Zone Control instances carry the AllPvP tag after repair,
	// so an AllPvP sentinel that landed on one would hide everything older
	// than the event.
	exclude := models.ModeUnknown
	if family == models.ModeAllPvP {
		exclude = models.ModeIronBannerZoneControl
	}

	sentinel, err := engine.store.MaxSyncedActivityID(character.ID, family, exclude)
	if err != nil {
		return 0, err
	}

	entries, err := engine.api.ListActivitiesSinceID(ctx, member.ID, character.ID,
		member.Platform, family, sentinel)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	// History arrives newest first; queue oldest first so an interrupted
	// fetch resumes in chronological order.
	ids := make([]int64, 0, len(entries))
	for index := len(entries) - 1; index >= 0; index-- {
		details := &entries[index].ActivityDetails
		if bungie.GambitPrivateMatchHashes[details.DirectorActivityHash] {
			continue
		}

		id, err := details.InstanceIDInt()
		if err != nil {
			glg.Warnf("Skipping discovered activity with bad instance id %s: %s",
				details.InstanceID, err.Error())
			continue
		}
		ids = append(ids, id)
	}

	if err := engine.store.EnqueueActivities(character.ID, ids); err != nil {
		return 0, err
	}

	glg.Debugf("Queued %d activities for character %d mode %s", len(ids), character.ID, family)
	return len(ids), nil
}

// syncActivities drains the character's unsynced queue: skip instances some
// other character already stored, then fetch the rest in concurrent chunks
// and persist each report in its own transaction. Individual fetch or insert
// failures leave the queue row for the next pass.
func (engine *Engine) syncActivities(ctx context.Context, character *models.Character) (int, error) {
	queued, err := engine.store.UnsyncedQueueIDs(character.ID)
	if err != nil {
		return 0, err
	}

	pending := make([]int64, 0, len(queued))
	for _, activityID := range queued {
		exists, err := engine.store.HasActivity(activityID)
		if err != nil {
			return 0, err
		}
		if exists {
			if err := engine.store.MarkQueueSynced(activityID, character.ID); err != nil {
				return 0, err
			}
			continue
		}

		pending = append(pending, activityID)
	}

	if len(pending) == 0 {
		return 0, nil
	}

	synced := 0
	fix := engine.memberFixer(ctx)
	for start := 0; start < len(pending); start += bungie.PGCRRequestChunkSize {
		// A cancellation lets in-flight requests finish under their own
		// deadlines but issues no new chunk.
		if ctx.Err() != nil {
			break
		}

		end := start + bungie.PGCRRequestChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		reports := make([]*bungie.PostGameCarnageReport, len(chunk))
		group := &errgroup.Group{}
		group.SetLimit(bungie.PGCRRequestChunkSize)

		for index, activityID := range chunk {
			index, activityID := index, activityID
			group.Go(func() error {
				pgcr, err := engine.api.GetPGCR(ctx, activityID)
				if err != nil {
					glg.Warnf("Failed to fetch pgcr %d: %s", activityID, err.Error())
					return nil
				}

				reports[index] = pgcr
				return nil
			})
		}
		group.Wait()

		for index, pgcr := range reports {
			if pgcr == nil {
				glg.Debugf("Empty response for pgcr %d, ignoring", chunk[index])
				continue
			}

			bungie.FixPGCRData(pgcr)
			if err := engine.store.InsertActivity(pgcr, character.ID, fix); err != nil {
				glg.Errorf("Failed to store activity %s: %s",
					pgcr.ActivityDetails.InstanceID, err.Error())
				continue
			}
			synced++
		}
	}

	if err := engine.store.Optimize(); err != nil {
		glg.Warnf("Store optimize failed: %s", err.Error())
	}

	return synced, nil
}

// memberFixer builds the repair callback for incomplete member observations.
// Nil unless the corrupt data flag is set.
func (engine *Engine) memberFixer(ctx context.Context) db.MemberFixFunc {
	if !engine.fixCorruptData {
		return nil
	}

	return func(member *models.Member) *models.Member {
		profiles, err := engine.api.GetLinkedProfiles(ctx, member.ID, member.Platform)
		if err != nil {
			glg.Warnf("Linked profile repair for member %d failed: %s", member.ID, err.Error())
			return nil
		}

		for _, profile := range profiles {
			fixed, err := profile.ToMember()
			if err != nil {
				continue
			}
			if fixed.ID == member.ID {
				glg.Debugf("Repaired member %d from linked profiles", member.ID)
				return fixed
			}
		}

		return nil
	}
}

// SyncAll walks every subscribed member. A failure on one member is logged
// and does not abort the pass.
func (engine *Engine) SyncAll(ctx context.Context) (*SyncResult, error) {
	members, err := engine.store.SyncSubscriptions()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, member := range members {
		if ctx.Err() != nil {
			break
		}

		memberResult, err := engine.SyncMember(ctx, member)
		if memberResult != nil {
			result.add(memberResult)
		}
		if err != nil && ctx.Err() == nil {
			glg.Errorf("Sync for member %d failed: %s", member.ID, err.Error())
		}
	}

	return result, nil
}
