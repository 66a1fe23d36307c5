package db

import (
	"database/sql"
	"time"

	"github.com/kpango/glg"
	"github.com/pkg/errors"

	"github.com/mikechambers/dcli-sub000/manifest"
	"github.com/mikechambers/dcli-sub000/models"
)

// Definitions is the slice of the manifest the query engine consumes for
// hydration. *manifest.Manifest satisfies it; a nil source degrades every
// name to "Unknown".
type Definitions interface {
	ActivityDefinition(hash uint32) (*manifest.ActivityDefinition, error)
	InventoryItemDefinition(hash uint32) (*manifest.InventoryItemDefinition, error)
	HistoricalStatsDefinition(id string) (*manifest.HistoricalStatsDefinition, error)
}

// Queries wraps the store's read side together with the definition source
// used for hydration.
type Queries struct {
	store       *Store
	definitions Definitions
}

// NewQueries builds the read side over an open store. definitions may be nil.
func NewQueries(store *Store, definitions Definitions) *Queries {
	return &Queries{store: store, definitions: definitions}
}

// characterFilterSQL is the class predicate every per-member query applies.
// Binding the all-classes sentinel to both placeholders disables the filter.
const characterFilterSQL = "(c.class = ? OR 4 = ?)"

// RetrieveLastActiveClass returns the class of the member's character with
// the most recent stored activity. ErrActivityNotFound when the member has no
// stored activity at all.
func (queries *Queries) RetrieveLastActiveClass(memberID int64) (models.CharacterClass, error) {
	var class int
	err := queries.store.database.QueryRow(`
        SELECT c.class
        FROM character_activity_stats cas
        JOIN character c ON c.character_id = cas.character
        JOIN activity a ON a.activity_id = cas.activity
        WHERE c.member_id = ?
        ORDER BY a.period DESC
        LIMIT 1`, memberID).Scan(&class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ClassUnknown, ErrActivityNotFound
		}
		return models.ClassUnknown, errors.Wrap(err, "failed to resolve last active class")
	}

	return models.ClassFromID(class), nil
}

// resolveSelection turns a character selection into the class id to bind into
// the filter predicate, resolving LastActive against the store.
func (queries *Queries) resolveSelection(memberID int64, selection models.CharacterSelection) (int, error) {
	if selection != models.SelectionLastActive {
		return selection.ClassID(), nil
	}

	class, err := queries.RetrieveLastActiveClass(memberID)
	if err != nil {
		return 0, err
	}

	return models.SelectionForClass(class).ClassID(), nil
}

// restrictMode returns the mode whose presence disqualifies an activity from
// a query for the requested mode. Public queries must not absorb private
// matches of the same sub-mode; private queries need no restriction.
func restrictMode(mode models.Mode) models.Mode {
	if mode.IsPrivate() {
		return models.ModeUnknown
	}

	return models.ModePrivateMatchesAll
}

// excludeMode trims one more mode from a query's scope. All-of-PvP queries
// skip Iron Banner Zone Control instances, which carry their own primary
// mode id outside the AllPvP family upstream.
func excludeMode(mode models.Mode) models.Mode {
	if mode == models.ModeAllPvP {
		return models.ModeIronBannerZoneControl
	}

	return models.ModeUnknown
}

// RetrieveLastActivity returns the member's most recent activity carrying the
// mode, fully hydrated with every participant. ErrActivityNotFound when no
// activity matches.
func (queries *Queries) RetrieveLastActivity(memberID int64,
	selection models.CharacterSelection, mode models.Mode) (*models.Activity, error) {

	classID, err := queries.resolveSelection(memberID, selection)
	if err != nil {
		return nil, err
	}

	var activityID int64
	err = queries.store.database.QueryRow(`
        SELECT a.activity_id
        FROM character_activity_stats cas
        JOIN character c ON c.character_id = cas.character
        JOIN activity a ON a.activity_id = cas.activity
        WHERE c.member_id = ? AND `+characterFilterSQL+`
          AND EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
        ORDER BY a.period DESC
        LIMIT 1`,
		memberID, classID, classID, int(mode)).Scan(&activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivityNotFound
		}
		return nil, errors.Wrap(err, "failed to find last activity")
	}

	return queries.hydrateActivity(activityID)
}

// RetrieveActivitiesSince returns the member's performances inside the
// period, newest first. A nil slice with a nil error means nothing matched.
func (queries *Queries) RetrieveActivitiesSince(memberID int64,
	selection models.CharacterSelection, mode models.Mode,
	period *models.DateTimePeriod) ([]*models.ActivityPerformance, error) {

	classID, err := queries.resolveSelection(memberID, selection)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := queries.store.database.Query(`
        SELECT a.activity_id, a.period, a.mode, a.platform_id, a.director_activity_hash, a.reference_id,
               cas.id, cas.character, c.class,
               `+statsColumnsSQL+`
        FROM character_activity_stats cas
        JOIN character c ON c.character_id = cas.character
        JOIN activity a ON a.activity_id = cas.activity
        WHERE c.member_id = ? AND `+characterFilterSQL+`
          AND a.period >= ? AND a.period <= ?
          AND EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
          AND NOT EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
          AND NOT EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
        ORDER BY a.period DESC`,
		memberID, classID, classID,
		period.Start.Unix(), period.End.Unix(),
		int(mode), int(restrictMode(mode)), int(excludeMode(mode)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query activities")
	}
	defer rows.Close()

	var performances []*models.ActivityPerformance
	var statsIDs []int64
	for rows.Next() {
		performance := &models.ActivityPerformance{}
		var statsID int64
		var class int
		var periodUnix int64
		var modeID, platformID int
		var directorHash, referenceID int64

		dest := []interface{}{
			&performance.Activity.ActivityID, &periodUnix, &modeID, &platformID,
			&directorHash, &referenceID,
			&statsID, &performance.CharacterID, &class,
		}
		dest = append(dest, statsScanDest(&performance.Stats)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan activity performance")
		}

		performance.Activity.Period = time.Unix(periodUnix, 0).UTC()
		performance.Activity.Mode = models.ModeFromID(modeID)
		performance.Activity.Platform = models.PlatformFromID(platformID)
		performance.Activity.DirectorActivityHash = uint32(directorHash)
		performance.Activity.ReferenceID = uint32(referenceID)
		performance.Activity.MapName = queries.mapName(performance.Activity.ReferenceID)
		performance.Class = models.ClassFromID(class)

		performances = append(performances, performance)
		statsIDs = append(statsIDs, statsID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate activity performances")
	}
	// The pool holds a single connection, so the cursor must be released
	// before the weapon and medal lookups below can run.
	rows.Close()

	for index, performance := range performances {
		if performance.Weapons, err = queries.hydrateWeapons(statsIDs[index]); err != nil {
			return nil, err
		}
		if performance.Medals, err = queries.hydrateMedals(statsIDs[index]); err != nil {
			return nil, err
		}
	}

	return performances, nil
}

// RetrieveActivitiesSummary rolls the member's performances inside the period
// into a single aggregate row. An empty period yields the zero summary.
func (queries *Queries) RetrieveActivitiesSummary(memberID int64,
	selection models.CharacterSelection, mode models.Mode,
	period *models.DateTimePeriod) (*models.ActivitySummary, error) {

	classID, err := queries.resolveSelection(memberID, selection)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			return &models.ActivitySummary{}, nil
		}
		return nil, err
	}

	summary := &models.ActivitySummary{}
	err = queries.store.database.QueryRow(`
        SELECT
            COALESCE(COUNT(*), 0),
            COALESCE(SUM(cas.time_played_seconds), 0),
            COALESCE(SUM(cas.standing = 0), 0),
            COALESCE(SUM(cas.completion_reason = 4), 0),
            COALESCE(SUM(cas.completed), 0),
            COALESCE(SUM(cas.assists), 0),
            COALESCE(SUM(cas.kills), 0),
            COALESCE(SUM(cas.deaths), 0),
            COALESCE(SUM(cas.opponents_defeated), 0),
            COALESCE(SUM(cas.weapon_kills_grenade), 0),
            COALESCE(SUM(cas.weapon_kills_melee), 0),
            COALESCE(SUM(cas.weapon_kills_super), 0),
            COALESCE(SUM(cas.weapon_kills_ability), 0),
            COALESCE(SUM(cas.precision_kills), 0),
            COALESCE(MAX(cas.assists), 0),
            COALESCE(MAX(cas.kills), 0),
            COALESCE(MAX(cas.deaths), 0),
            COALESCE(MAX(cas.opponents_defeated), 0),
            COALESCE(MAX(cas.weapon_kills_grenade), 0),
            COALESCE(MAX(cas.weapon_kills_melee), 0),
            COALESCE(MAX(cas.weapon_kills_super), 0),
            COALESCE(MAX(cas.weapon_kills_ability), 0),
            COALESCE(MAX(cas.precision_kills), 0),
            COALESCE(MAX(CAST(cas.kills AS REAL) / MAX(cas.deaths, 1)), 0),
            COALESCE(MAX((cas.kills + cas.assists * 0.5) / MAX(cas.deaths, 1)), 0),
            COALESCE(MAX(CAST(cas.kills + cas.assists AS REAL) / MAX(cas.deaths, 1)), 0)
        FROM character_activity_stats cas
        JOIN character c ON c.character_id = cas.character
        JOIN activity a ON a.activity_id = cas.activity
        WHERE c.member_id = ? AND `+characterFilterSQL+`
          AND a.period >= ? AND a.period <= ?
          AND EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
          AND NOT EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)
          AND NOT EXISTS (SELECT 1 FROM modes m WHERE m.activity = a.activity_id AND m.mode = ?)`,
		memberID, classID, classID,
		period.Start.Unix(), period.End.Unix(),
		int(mode), int(restrictMode(mode)), int(excludeMode(mode))).Scan(
		&summary.TotalActivities, &summary.TimePlayedSeconds, &summary.Wins,
		&summary.CompletionReasonMercy, &summary.Completed, &summary.Assists,
		&summary.Kills, &summary.Deaths, &summary.OpponentsDefeated,
		&summary.GrenadeKills, &summary.MeleeKills, &summary.SuperKills,
		&summary.AbilityKills, &summary.Precision,
		&summary.HighestAssists, &summary.HighestKills, &summary.HighestDeaths,
		&summary.HighestOpponentsDefeated, &summary.HighestGrenadeKills,
		&summary.HighestMeleeKills, &summary.HighestSuperKills,
		&summary.HighestAbilityKills, &summary.HighestPrecision,
		&summary.HighestKillsDeathsRatio, &summary.HighestKillsDeathsAssistsRatio,
		&summary.HighestEfficiency)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query activity summary")
	}

	return summary, nil
}

// statsColumnsSQL selects the full stat block in the order statsScanDest
// expects.
const statsColumnsSQL = `cas.kills, cas.deaths, cas.assists, cas.score, cas.opponents_defeated,
               cas.completed, cas.standing, cas.team, cas.completion_reason, cas.start_seconds,
               cas.activity_duration_seconds, cas.time_played_seconds, cas.player_count, cas.team_score,
               cas.precision_kills, cas.weapon_kills_ability, cas.weapon_kills_grenade,
               cas.weapon_kills_melee, cas.weapon_kills_super, cas.all_medals_earned,
               cas.light_level, cas.emblem_hash, cas.fireteam_id`

// statsScanDest returns scan targets matching statsColumnsSQL.
func statsScanDest(stats *models.CharacterActivityStats) []interface{} {
	return []interface{}{
		&stats.Kills, &stats.Deaths, &stats.Assists, &stats.Score, &stats.OpponentsDefeated,
		&stats.Completed, &stats.Standing, &stats.Team, &stats.CompletionReason, &stats.StartSeconds,
		&stats.DurationSeconds, &stats.TimePlayedSeconds, &stats.PlayerCount, &stats.TeamScore,
		&stats.PrecisionKills, &stats.AbilityKills, &stats.GrenadeKills,
		&stats.MeleeKills, &stats.SuperKills, &stats.MedalsEarned,
		&stats.LightLevel, &stats.EmblemHash, &stats.FireteamID,
	}
}

// hydrateActivity loads one activity row with its teams and every
// participant's stat line, weapons, and medals.
func (queries *Queries) hydrateActivity(activityID int64) (*models.Activity, error) {
	activity := &models.Activity{}
	detail := &activity.Detail

	var periodUnix, directorHash, referenceID int64
	var modeID, platformID int
	err := queries.store.database.QueryRow(`
        SELECT activity_id, period, mode, platform_id, director_activity_hash, reference_id
        FROM activity WHERE activity_id = ?`, activityID).Scan(
		&detail.ActivityID, &periodUnix, &modeID, &platformID, &directorHash, &referenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivityNotFound
		}
		return nil, errors.Wrap(err, "failed to load activity")
	}

	detail.Period = time.Unix(periodUnix, 0).UTC()
	detail.Mode = models.ModeFromID(modeID)
	detail.Platform = models.PlatformFromID(platformID)
	detail.DirectorActivityHash = uint32(directorHash)
	detail.ReferenceID = uint32(referenceID)
	detail.MapName = queries.mapName(detail.ReferenceID)

	teams, err := queries.loadTeams(activityID)
	if err != nil {
		return nil, err
	}

	performances, err := queries.loadPerformances(activityID)
	if err != nil {
		return nil, err
	}

	activity.Teams = assembleTeams(teams, performances)
	return activity, nil
}

// loadTeams reads the stored team results for an activity, in insertion
// order.
func (queries *Queries) loadTeams(activityID int64) ([]*models.Team, error) {
	rows, err := queries.store.database.Query(`
        SELECT team_id, score, standing FROM team_result
        WHERE activity = ? ORDER BY rowid ASC`, activityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query team results")
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		var standing int
		if err := rows.Scan(&team.ID, &team.Score, &standing); err != nil {
			return nil, errors.Wrap(err, "failed to scan team result")
		}
		team.Standing = models.StandingFromValue(standing)
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// loadPerformances reads every participant's stat line for an activity,
// joined to the observed member names.
func (queries *Queries) loadPerformances(activityID int64) ([]*models.Performance, error) {
	rows, err := queries.store.database.Query(`
        SELECT cas.id, cas.character, c.class, c.member_id,
               mem.display_name, mem.bungie_display_name, mem.bungie_display_name_code,
               `+statsColumnsSQL+`
        FROM character_activity_stats cas
        JOIN character c ON c.character_id = cas.character
        JOIN member mem ON mem.member_id = c.member_id
        WHERE cas.activity = ?
        ORDER BY cas.score DESC`, activityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query performances")
	}
	defer rows.Close()

	var performances []*models.Performance
	var statsIDs []int64
	for rows.Next() {
		performance := &models.Performance{}
		var statsID int64
		var class int

		dest := []interface{}{
			&statsID, &performance.CharacterID, &class, &performance.MemberID,
			&performance.Player.DisplayName, &performance.Player.BungieDisplayName,
			&performance.Player.BungieDisplayNameCode,
		}
		dest = append(dest, statsScanDest(&performance.Stats)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan performance")
		}
		performance.Class = models.ClassFromID(class)

		performances = append(performances, performance)
		statsIDs = append(statsIDs, statsID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate performances")
	}
	// The pool holds a single connection, so the cursor must be released
	// before the weapon and medal lookups below can run.
	rows.Close()

	for index, performance := range performances {
		if performance.Weapons, err = queries.hydrateWeapons(statsIDs[index]); err != nil {
			return nil, err
		}
		if performance.Medals, err = queries.hydrateMedals(statsIDs[index]); err != nil {
			return nil, err
		}
	}

	return performances, nil
}

// assembleTeams partitions performances onto their stored teams. Modes with
// no team rows (free-for-all) get a single synthesized team holding everyone.
// Display names come from the fixed palette in insertion order.
func assembleTeams(teams []*models.Team, performances []*models.Performance) []*models.Team {
	if len(teams) == 0 {
		virtual := &models.Team{
			ID:           models.VirtualTeamID,
			Standing:     models.StandingUnknown,
			Performances: performances,
		}
		teams = []*models.Team{virtual}
	} else {
		byID := make(map[int]*models.Team, len(teams))
		for _, team := range teams {
			byID[team.ID] = team
		}
		for _, performance := range performances {
			if team, ok := byID[performance.Stats.Team]; ok {
				team.Performances = append(team.Performances, performance)
				continue
			}

			glg.Debugf("Performance for character %d references unknown team %d",
				performance.CharacterID, performance.Stats.Team)
		}
	}

	for index, team := range teams {
		if index < len(models.TeamNamePalette) {
			team.Name = models.TeamNamePalette[index]
		}
	}

	return teams
}

// hydrateWeapons loads the weapon breakdown for one stat line, resolving
// names through the manifest.
func (queries *Queries) hydrateWeapons(statsID int64) ([]*models.WeaponResult, error) {
	rows, err := queries.store.database.Query(`
        SELECT reference_id, kills, precision_kills, kills_precision_kills_ratio
        FROM weapon_result WHERE character_activity_stats = ?
        ORDER BY kills DESC`, statsID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query weapon results")
	}
	defer rows.Close()

	var weapons []*models.WeaponResult
	for rows.Next() {
		weapon := &models.WeaponResult{}
		var referenceID int64
		if err := rows.Scan(&referenceID, &weapon.Kills,
			&weapon.PrecisionKills, &weapon.PrecisionRatio); err != nil {
			return nil, errors.Wrap(err, "failed to scan weapon result")
		}

		weapon.ReferenceID = uint32(referenceID)
		weapon.Name = "Unknown"
		weapon.ItemType = models.ItemTypeUnknown
		weapon.ItemSubType = models.ItemSubTypeUnknown

		if queries.definitions != nil {
			definition, err := queries.definitions.InventoryItemDefinition(weapon.ReferenceID)
			if err != nil {
				glg.Warnf("Manifest lookup failed for item %d: %s", weapon.ReferenceID, err.Error())
			} else if definition != nil {
				weapon.Name = definition.DisplayProperties.Name
				weapon.ItemType = definition.ItemType
				weapon.ItemSubType = definition.ItemSubType
			}
		}

		weapons = append(weapons, weapon)
	}

	return weapons, rows.Err()
}

// hydrateMedals loads the medals for one stat line, resolving names and
// tiers through the manifest. Unresolvable medals keep their raw id.
func (queries *Queries) hydrateMedals(statsID int64) ([]*models.MedalResult, error) {
	rows, err := queries.store.database.Query(`
        SELECT reference_id, count FROM medal_result
        WHERE character_activity_stats = ?
        ORDER BY count DESC`, statsID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query medal results")
	}
	defer rows.Close()

	var medals []*models.MedalResult
	for rows.Next() {
		medal := &models.MedalResult{}
		if err := rows.Scan(&medal.ReferenceID, &medal.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan medal result")
		}

		medal.Name = medal.ReferenceID
		medal.Tier = models.MedalTierUnknown

		if queries.definitions != nil {
			definition, err := queries.definitions.HistoricalStatsDefinition(medal.ReferenceID)
			if err != nil {
				glg.Warnf("Manifest lookup failed for medal %s: %s", medal.ReferenceID, err.Error())
			} else if definition != nil {
				medal.Name = definition.StatName
				medal.Description = definition.StatDescription
				medal.Tier = definition.Tier()
				medal.IconPath = definition.IconImage
			}
		}

		medals = append(medals, medal)
	}

	return medals, rows.Err()
}

// mapName resolves the map name for a reference id, falling back to
// "Unknown" on any miss or error.
func (queries *Queries) mapName(referenceID uint32) string {
	if queries.definitions == nil {
		return "Unknown"
	}

	definition, err := queries.definitions.ActivityDefinition(referenceID)
	if err != nil {
		glg.Warnf("Manifest lookup failed for activity %d: %s", referenceID, err.Error())
		return "Unknown"
	}
	if definition == nil || definition.DisplayProperties.Name == "" {
		return "Unknown"
	}

	return definition.DisplayProperties.Name
}
