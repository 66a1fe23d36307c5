package models

import "time"

// VirtualTeamID is the team id synthesized for modes that have no team rows
// (Rumble and other free-for-alls).
const VirtualTeamID = 253

// TeamNamePalette supplies display names for hydrated teams in insertion
// order.
var TeamNamePalette = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}

// ActivityDetail describes a single match instance independent of any
// particular player's performance in it.
type ActivityDetail struct {
	ActivityID           int64     `json:"activity_id"`
	Period               time.Time `json:"period"`
	Mode                 Mode      `json:"mode"`
	Platform             Platform  `json:"platform"`
	DirectorActivityHash uint32    `json:"director_activity_hash"`
	ReferenceID          uint32    `json:"reference_id"`
	MapName              string    `json:"map_name"`
}

// Activity is a fully hydrated match: detail plus every participating
// performance partitioned into teams.
type Activity struct {
	Detail ActivityDetail `json:"detail"`
	Teams  []*Team        `json:"teams"`
}

// Team groups the performances that fought on one side of a match.
type Team struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Score        int            `json:"score"`
	Standing     Standing       `json:"standing"`
	Performances []*Performance `json:"performances"`
}

// Performance is one character's stat line for one activity.
type Performance struct {
	MemberID    int64                  `json:"member_id"`
	Player      PlayerName             `json:"player"`
	CharacterID int64                  `json:"character_id"`
	Class       CharacterClass         `json:"class"`
	Stats       CharacterActivityStats `json:"stats"`
	Weapons     []*WeaponResult        `json:"weapons"`
	Medals      []*MedalResult         `json:"medals"`
}

// CharacterActivityStats is the flattened per character, per activity stat
// block as stored.
type CharacterActivityStats struct {
	Kills             int              `json:"kills"`
	Deaths            int              `json:"deaths"`
	Assists           int              `json:"assists"`
	Score             int              `json:"score"`
	OpponentsDefeated int              `json:"opponents_defeated"`
	Completed         int              `json:"completed"`
	Standing          Standing         `json:"standing"`
	Team              int              `json:"team"`
	CompletionReason  CompletionReason `json:"completion_reason"`
	StartSeconds      int              `json:"start_seconds"`
	DurationSeconds   int              `json:"duration_seconds"`
	TimePlayedSeconds int              `json:"time_played_seconds"`
	PlayerCount       int              `json:"player_count"`
	TeamScore         int              `json:"team_score"`
	PrecisionKills    int              `json:"precision_kills"`
	AbilityKills      int              `json:"ability_kills"`
	GrenadeKills      int              `json:"grenade_kills"`
	MeleeKills        int              `json:"melee_kills"`
	SuperKills        int              `json:"super_kills"`
	MedalsEarned      int              `json:"medals_earned"`
	LightLevel        int              `json:"light_level"`
	EmblemHash        uint32           `json:"emblem_hash"`
	FireteamID        int64            `json:"fireteam_id"`
}

// Efficiency computes (kills + assists) / max(deaths, 1) for this stat line.
func (stats *CharacterActivityStats) Efficiency() float64 {
	return Efficiency(stats.Kills, stats.Deaths, stats.Assists)
}

// KillsDeathsRatio computes kills / max(deaths, 1) for this stat line.
func (stats *CharacterActivityStats) KillsDeathsRatio() float64 {
	return KillsDeathsRatio(stats.Kills, stats.Deaths)
}

// KillsDeathsAssists computes (kills + assists/2) / max(deaths, 1) for this
// stat line.
func (stats *CharacterActivityStats) KillsDeathsAssists() float64 {
	return KillsDeathsAssists(stats.Kills, stats.Deaths, stats.Assists)
}

// WeaponResult is the per weapon kill breakdown for one performance.
type WeaponResult struct {
	ReferenceID    uint32      `json:"reference_id"`
	Name           string      `json:"name"`
	ItemType       ItemType    `json:"item_type"`
	ItemSubType    ItemSubType `json:"item_sub_type"`
	Kills          int         `json:"kills"`
	PrecisionKills int         `json:"precision_kills"`
	PrecisionRatio float64     `json:"precision_ratio"`
}

// MedalResult is one medal earned during one performance.
type MedalResult struct {
	ReferenceID string    `json:"reference_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tier        MedalTier `json:"tier"`
	IconPath    string    `json:"icon_path"`
	Count       int       `json:"count"`
}

// ActivityPerformance pairs one of the tracked member's performances with the
// activity it happened in. This is the row shape range queries return.
type ActivityPerformance struct {
	Activity    ActivityDetail         `json:"activity"`
	CharacterID int64                  `json:"character_id"`
	Class       CharacterClass         `json:"class"`
	Stats       CharacterActivityStats `json:"stats"`
	Weapons     []*WeaponResult        `json:"weapons"`
	Medals      []*MedalResult         `json:"medals"`
}

// ActivitySummary is the single row rolling aggregate over a period. Every
// field is coalesced to zero when no activities match.
type ActivitySummary struct {
	TotalActivities       int `json:"total_activities"`
	TimePlayedSeconds     int `json:"time_played_seconds"`
	Wins                  int `json:"wins"`
	CompletionReasonMercy int `json:"completion_reason_mercy"`
	Completed             int `json:"completed"`
	Assists               int `json:"assists"`
	Kills                 int `json:"kills"`
	Deaths                int `json:"deaths"`
	OpponentsDefeated     int `json:"opponents_defeated"`
	GrenadeKills          int `json:"grenade_kills"`
	MeleeKills            int `json:"melee_kills"`
	SuperKills            int `json:"super_kills"`
	AbilityKills          int `json:"ability_kills"`
	Precision             int `json:"precision"`

	HighestAssists           int `json:"highest_assists"`
	HighestKills             int `json:"highest_kills"`
	HighestDeaths            int `json:"highest_deaths"`
	HighestOpponentsDefeated int `json:"highest_opponents_defeated"`
	HighestGrenadeKills      int `json:"highest_grenade_kills"`
	HighestMeleeKills        int `json:"highest_melee_kills"`
	HighestSuperKills        int `json:"highest_super_kills"`
	HighestAbilityKills      int `json:"highest_ability_kills"`
	HighestPrecision         int `json:"highest_precision"`

	HighestKillsDeathsRatio        float64 `json:"highest_kills_deaths_ratio"`
	HighestKillsDeathsAssistsRatio float64 `json:"highest_kills_deaths_assists_ratio"`
	HighestEfficiency              float64 `json:"highest_efficiency"`
}

// Losses is derived from the totals rather than stored.
func (summary *ActivitySummary) Losses() int {
	return summary.TotalActivities - summary.Wins
}

// WinPercentage is wins over total, zero when nothing was played.
func (summary *ActivitySummary) WinPercentage() float64 {
	if summary.TotalActivities == 0 {
		return 0
	}

	return float64(summary.Wins) / float64(summary.TotalActivities) * 100.0
}

// Efficiency computes the aggregate efficiency over the whole period.
func (summary *ActivitySummary) Efficiency() float64 {
	return Efficiency(summary.Kills, summary.Deaths, summary.Assists)
}

// KillsDeathsRatio computes the aggregate k/d over the whole period.
func (summary *ActivitySummary) KillsDeathsRatio() float64 {
	return KillsDeathsRatio(summary.Kills, summary.Deaths)
}
