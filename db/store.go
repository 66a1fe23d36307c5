package db

import (
	"database/sql"
	"time"

	"github.com/kpango/glg"
	"github.com/pkg/errors"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/models"
)

// execer covers both *sql.DB and *sql.Tx so the upsert helpers can run
// inside or outside an explicit transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MemberFixFunc repairs an incomplete member observation, typically by
// asking the API for the member's linked profiles. A nil return means the
// observation could not be improved and is stored as-is.
type MemberFixFunc func(member *models.Member) *models.Member

// HasMember reports whether any row exists for the member id.
func (store *Store) HasMember(memberID int64) (bool, error) {
	return memberExists(store.database, memberID)
}

func memberExists(ex execer, memberID int64) (bool, error) {
	var count int
	err := ex.QueryRow("SELECT COUNT(*) FROM member WHERE member_id = ?", memberID).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check for member")
	}

	return count > 0, nil
}

// UpsertMember writes the member unconditionally; later observations with at
// least partial data always replace the stored fields.
func (store *Store) UpsertMember(member *models.Member) error {
	return upsertMember(store.database, member)
}

func upsertMember(ex execer, member *models.Member) error {
	_, err := ex.Exec(`
        INSERT INTO member (member_id, platform_id, display_name, bungie_display_name, bungie_display_name_code)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (member_id) DO UPDATE SET
            platform_id = excluded.platform_id,
            display_name = excluded.display_name,
            bungie_display_name = excluded.bungie_display_name,
            bungie_display_name_code = excluded.bungie_display_name_code`,
		member.ID, int(member.Platform), member.Name.DisplayName,
		member.Name.BungieDisplayName, member.Name.BungieDisplayNameCode)

	return errors.Wrapf(err, "failed to upsert member %d", member.ID)
}

// upsertObservedMember applies the incomplete-observation policy: data worse
// than what is stored never overwrites it, and a fixer gets one chance to
// repair a first-time incomplete observation.
func upsertObservedMember(ex execer, member *models.Member, fix MemberFixFunc) error {
	incomplete := !member.Name.HasValidBungieName() || member.Platform == models.PlatformUnknown
	if incomplete {
		exists, err := memberExists(ex, member.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if fix != nil {
			if fixed := fix(member); fixed != nil {
				member = fixed
			}
		}
	}

	return upsertMember(ex, member)
}

// UpsertCharacter inserts the character, never downgrading a known class to
// unknown.
func (store *Store) UpsertCharacter(character *models.Character) error {
	return upsertCharacter(store.database, character)
}

func upsertCharacter(ex execer, character *models.Character) error {
	_, err := ex.Exec(`
        INSERT INTO character (character_id, member_id, class)
        VALUES (?, ?, ?)
        ON CONFLICT (character_id) DO UPDATE SET class = excluded.class
        WHERE character.class = ? AND excluded.class != ?`,
		character.ID, character.MemberID, int(character.Class),
		int(models.ClassUnknown), int(models.ClassUnknown))

	return errors.Wrapf(err, "failed to upsert character %d", character.ID)
}

// Characters returns the stored characters for a member.
func (store *Store) Characters(memberID int64) ([]*models.Character, error) {
	rows, err := store.database.Query(
		"SELECT character_id, member_id, class FROM character WHERE member_id = ?", memberID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query characters")
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		character := &models.Character{}
		var class int
		if err := rows.Scan(&character.ID, &character.MemberID, &class); err != nil {
			return nil, errors.Wrap(err, "failed to scan character")
		}
		character.Class = models.ClassFromID(class)
		characters = append(characters, character)
	}

	return characters, rows.Err()
}

// GetMember loads a stored member by id.
func (store *Store) GetMember(memberID int64) (*models.Member, error) {
	return scanMember(store.database.QueryRow(`
        SELECT member_id, platform_id, display_name, bungie_display_name, bungie_display_name_code
        FROM member WHERE member_id = ?`, memberID))
}

// GetMemberByName loads a stored member by bungie name and code.
func (store *Store) GetMemberByName(name *models.PlayerName) (*models.Member, error) {
	return scanMember(store.database.QueryRow(`
        SELECT member_id, platform_id, display_name, bungie_display_name, bungie_display_name_code
        FROM member WHERE bungie_display_name = ? AND bungie_display_name_code = ?`,
		name.BungieDisplayName, name.BungieDisplayNameCode))
}

func scanMember(row *sql.Row) (*models.Member, error) {
	member := &models.Member{}
	var platform int
	err := row.Scan(&member.ID, &platform, &member.Name.DisplayName,
		&member.Name.BungieDisplayName, &member.Name.BungieDisplayNameCode)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to scan member")
	}
	member.Platform = models.PlatformFromID(platform)

	return member, nil
}

// UpsertSyncSubscription records that the member should be walked on global
// sync passes, stamping the last sync time.
func (store *Store) UpsertSyncSubscription(memberID int64, lastSync time.Time) error {
	_, err := store.database.Exec(`
        INSERT INTO sync (member_id, last_sync) VALUES (?, ?)
        ON CONFLICT (member_id) DO UPDATE SET last_sync = excluded.last_sync`,
		memberID, lastSync.UTC().Unix())

	return errors.Wrapf(err, "failed to upsert sync subscription for %d", memberID)
}

// SyncSubscriptions returns every subscribed member.
func (store *Store) SyncSubscriptions() ([]*models.Member, error) {
	rows, err := store.database.Query(`
        SELECT m.member_id, m.platform_id, m.display_name, m.bungie_display_name, m.bungie_display_name_code
        FROM sync s JOIN member m ON m.member_id = s.member_id
        ORDER BY s.last_sync ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sync subscriptions")
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		var platform int
		if err := rows.Scan(&member.ID, &platform, &member.Name.DisplayName,
			&member.Name.BungieDisplayName, &member.Name.BungieDisplayNameCode); err != nil {
			return nil, errors.Wrap(err, "failed to scan sync subscription")
		}
		member.Platform = models.PlatformFromID(platform)
		members = append(members, member)
	}

	return members, rows.Err()
}

// RemoveSyncSubscription stops walking the member on global sync passes.
func (store *Store) RemoveSyncSubscription(memberID int64) error {
	_, err := store.database.Exec("DELETE FROM sync WHERE member_id = ?", memberID)
	return errors.Wrapf(err, "failed to remove sync subscription for %d", memberID)
}

// MaxSyncedActivityID returns the discovery sentinel: the highest activity
// instance id already queued for the character whose activity carries the
// mode. excludeMode trims a mode from consideration (pass ModeUnknown to
// disable); AllPvP discovery uses it to keep Iron Banner Zone Control
// instances from hiding unseen regular PvP activities.
func (store *Store) MaxSyncedActivityID(characterID int64, mode, excludeMode models.Mode) (int64, error) {
	var sentinel int64
	err := store.database.QueryRow(`
        SELECT COALESCE(MAX(aq.activity_id), 0)
        FROM activity_queue aq
        JOIN activity a ON a.activity_id = aq.activity_id
        WHERE aq.character = ?
          AND EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
          AND NOT EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)`,
		characterID, int(mode), int(excludeMode)).Scan(&sentinel)
	if err != nil {
		return 0, errors.Wrap(err, "failed to query discovery sentinel")
	}

	return sentinel, nil
}

// EnqueueActivities inserts discovered instance ids for the character inside
// one transaction, oldest first. Inserts are idempotent by primary key, so
// re-discovering an instance is harmless. Any write failure rolls the whole
// batch back.
func (store *Store) EnqueueActivities(characterID int64, activityIDs []int64) error {
	if len(activityIDs) == 0 {
		return nil
	}

	tx, err := store.BeginTx()
	if err != nil {
		return err
	}

	for _, activityID := range activityIDs {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO activity_queue (activity_id, character) VALUES (?, ?)",
			activityID, characterID); err != nil {
			store.Rollback(tx)
			return errors.Wrapf(err, "failed to enqueue activity %d", activityID)
		}
	}

	return store.Commit(tx)
}

// UnsyncedQueueIDs returns the queued, not yet synced instance ids for the
// character in insertion order, which discovery guarantees is chronological.
func (store *Store) UnsyncedQueueIDs(characterID int64) ([]int64, error) {
	rows, err := store.database.Query(
		"SELECT activity_id FROM activity_queue WHERE character = ? AND synced = 0 ORDER BY rowid ASC",
		characterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query activity queue")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan queue row")
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// HasActivity reports whether the activity row already exists, which happens
// when another character in the same match synced it first.
func (store *Store) HasActivity(activityID int64) (bool, error) {
	var count int
	err := store.database.QueryRow(
		"SELECT COUNT(*) FROM activity WHERE activity_id = ?", activityID).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check for activity")
	}

	return count > 0, nil
}

// MarkQueueSynced flags the queue row done without touching anything else.
func (store *Store) MarkQueueSynced(activityID, characterID int64) error {
	return markQueueSynced(store.database, activityID, characterID)
}

func markQueueSynced(ex execer, activityID, characterID int64) error {
	_, err := ex.Exec(
		"UPDATE activity_queue SET synced = 1 WHERE activity_id = ? AND character = ?",
		activityID, characterID)

	return errors.Wrapf(err, "failed to mark queue row synced for activity %d", activityID)
}

// InsertActivity persists one carnage report inside a single transaction:
// the activity row, its team results and mode set, every entry's member,
// character, stat line, weapons, and medals, and finally the initiating
// queue row flip. Any failure rolls the whole activity back so a cancelled
// or failed insert never leaves partial rows behind.
func (store *Store) InsertActivity(pgcr *bungie.PostGameCarnageReport, characterID int64, fix MemberFixFunc) error {
	activityID, err := pgcr.ActivityDetails.InstanceIDInt()
	if err != nil {
		return errors.Wrapf(err, "invalid instance id: %s", pgcr.ActivityDetails.InstanceID)
	}

	tx, err := store.BeginTx()
	if err != nil {
		return err
	}

	if err := insertActivityTx(tx, pgcr, activityID, characterID, fix); err != nil {
		store.Rollback(tx)
		return err
	}

	return store.Commit(tx)
}

func insertActivityTx(tx *sql.Tx, pgcr *bungie.PostGameCarnageReport,
	activityID, characterID int64, fix MemberFixFunc) error {

	details := &pgcr.ActivityDetails

	// OR IGNORE keeps this idempotent when two tracked characters shared
	// the same match instance.
	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO activity (activity_id, period, mode, platform_id, director_activity_hash, reference_id)
        VALUES (?, ?, ?, ?, ?, ?)`,
		activityID, pgcr.Period.UTC().Unix(), int(details.Mode),
		details.MembershipType, int64(details.DirectorActivityHash), int64(details.ReferenceID)); err != nil {
		return errors.Wrapf(err, "failed to insert activity %d", activityID)
	}

	for _, team := range pgcr.Teams {
		if _, err := tx.Exec(`
            INSERT OR IGNORE INTO team_result (activity, team_id, score, standing)
            VALUES (?, ?, ?, ?)`,
			activityID, team.TeamID, team.Score.Int(), team.Standing.Int()); err != nil {
			return errors.Wrapf(err, "failed to insert team result for activity %d", activityID)
		}
	}

	for _, mode := range details.Modes {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO modes (activity, mode) VALUES (?, ?)",
			activityID, int(mode)); err != nil {
			return errors.Wrapf(err, "failed to insert mode for activity %d", activityID)
		}
	}

	for _, entry := range pgcr.Entries {
		if err := insertEntryTx(tx, entry, activityID, fix); err != nil {
			return err
		}
	}

	return markQueueSynced(tx, activityID, characterID)
}

func insertEntryTx(tx *sql.Tx, entry *bungie.PGCREntry, activityID int64, fix MemberFixFunc) error {
	member, err := entry.Player.DestinyUserInfo.ToMember()
	if err != nil {
		return errors.Wrap(err, "invalid member id in pgcr entry")
	}
	if err := upsertObservedMember(tx, member, fix); err != nil {
		return err
	}

	entryCharacterID, err := entry.CharacterIDInt()
	if err != nil {
		return errors.Wrap(err, "invalid character id in pgcr entry")
	}
	// The PGCR player block carries the class as a name and hash, not the
	// classType enum, so map through the name.
	character := &models.Character{
		ID:       entryCharacterID,
		MemberID: member.ID,
		Class:    classFromPGCR(entry),
	}
	if err := upsertCharacter(tx, character); err != nil {
		return err
	}

	result, err := tx.Exec(`
        INSERT OR IGNORE INTO character_activity_stats (
            character, activity, kills, deaths, assists, score, opponents_defeated,
            completed, standing, team, completion_reason, start_seconds,
            activity_duration_seconds, time_played_seconds, player_count, team_score,
            precision_kills, weapon_kills_ability, weapon_kills_grenade,
            weapon_kills_melee, weapon_kills_super, all_medals_earned,
            light_level, emblem_hash, fireteam_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryCharacterID, activityID,
		entry.Stat("kills"), entry.Stat("deaths"), entry.Stat("assists"),
		entry.Score.Int(), entry.Stat("opponentsDefeated"),
		entry.Stat("completed"), entry.Stat("standing"), entry.Stat("team"),
		entry.Stat("completionReason"), entry.Stat("startSeconds"),
		entry.Stat("activityDurationSeconds"), entry.Stat("timePlayedSeconds"),
		entry.Stat("playerCount"), entry.Stat("teamScore"),
		entry.ExtendedStat("precisionKills"), entry.ExtendedStat("weaponKillsAbility"),
		entry.ExtendedStat("weaponKillsGrenade"), entry.ExtendedStat("weaponKillsMelee"),
		entry.ExtendedStat("weaponKillsSuper"), entry.ExtendedStat("allMedalsEarned"),
		entry.Player.LightLevel, int64(entry.Player.EmblemHash), entry.Stat64("fireteamId"))
	if err != nil {
		return errors.Wrapf(err, "failed to insert stats for character %d", entryCharacterID)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read stats insert result")
	}
	if inserted == 0 {
		// The stat line is already there from an earlier pass; weapons and
		// medals came with it.
		return nil
	}

	var statsID int64
	if err := tx.QueryRow(
		"SELECT id FROM character_activity_stats WHERE character = ? AND activity = ?",
		entryCharacterID, activityID).Scan(&statsID); err != nil {
		return errors.Wrap(err, "failed to read back stats row id")
	}

	if entry.Extended == nil {
		return nil
	}

	for medalID, count := range entry.Extended.Medals() {
		if _, err := tx.Exec(`
            INSERT OR IGNORE INTO medal_result (character_activity_stats, reference_id, count)
            VALUES (?, ?, ?)`, statsID, medalID, count); err != nil {
			return errors.Wrapf(err, "failed to insert medal %s", medalID)
		}
	}

	for _, weapon := range entry.Extended.Weapons {
		if _, err := tx.Exec(`
            INSERT OR IGNORE INTO weapon_result (character_activity_stats, reference_id, kills, precision_kills, kills_precision_kills_ratio)
            VALUES (?, ?, ?, ?, ?)`,
			statsID, int64(weapon.ReferenceID), weapon.Kills(),
			weapon.PrecisionKills(), weapon.PrecisionRatio()); err != nil {
			return errors.Wrapf(err, "failed to insert weapon %d", weapon.ReferenceID)
		}
	}

	return nil
}

// classFromPGCR resolves the character class from the PGCR player block. The
// block names the class rather than carrying the enum value.
func classFromPGCR(entry *bungie.PGCREntry) models.CharacterClass {
	switch entry.Player.CharacterClass {
	case "Titan":
		return models.ClassTitan
	case "Hunter":
		return models.ClassHunter
	case "Warlock":
		return models.ClassWarlock
	}

	glg.Debugf("Unknown character class in pgcr entry: %s", entry.Player.CharacterClass)
	return models.ClassUnknown
}
