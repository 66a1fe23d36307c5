package bungie

import (
	"strconv"
	"time"

	"github.com/mikechambers/dcli-sub000/models"
)

// BaseResponse represents the envelope returned as part of all of the Bungie
// API requests.
type BaseResponse struct {
	ErrorCode       int         `json:"ErrorCode"`
	ThrottleSeconds int         `json:"ThrottleSeconds"`
	ErrorStatus     string      `json:"ErrorStatus"`
	Message         string      `json:"Message"`
	MessageData     interface{} `json:"MessageData"`
}

// StatValue is the {basic:{value}} wrapper historical stat values arrive in.
type StatValue struct {
	Basic struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
	} `json:"basic"`
}

// Int is the stat value truncated to an int, how nearly every counter is
// consumed.
func (value StatValue) Int() int {
	return int(value.Basic.Value)
}

// statInt reads a named stat out of a values map, zero when absent.
func statInt(values map[string]StatValue, key string) int {
	if value, ok := values[key]; ok {
		return value.Int()
	}

	return 0
}

func statInt64(values map[string]StatValue, key string) int64 {
	if value, ok := values[key]; ok {
		return int64(value.Basic.Value)
	}

	return 0
}

// UserInfoCard is the membership card shape shared by player search, linked
// profiles, group rosters, and PGCR entries.
// https://bungie-net.github.io/multi/schema_User-UserInfoCard.html
type UserInfoCard struct {
	MembershipType              int    `json:"membershipType"`
	MembershipID                string `json:"membershipId"`
	DisplayName                 string `json:"displayName"`
	BungieGlobalDisplayName     string `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode *int   `json:"bungieGlobalDisplayNameCode"`
	CrossSaveOverride           int    `json:"crossSaveOverride"`
	ApplicableMembershipTypes   []int  `json:"applicableMembershipTypes"`
}

// ToMember converts a card to the domain Member, resolving the platform
// through the cross-save override when one is set.
func (card *UserInfoCard) ToMember() (*models.Member, error) {
	id, err := strconv.ParseInt(card.MembershipID, 10, 64)
	if err != nil {
		return nil, err
	}

	platform := models.PlatformFromID(card.MembershipType)
	if override := models.PlatformFromID(card.CrossSaveOverride); override != models.PlatformUnknown {
		platform = override
	}

	member := &models.Member{
		ID:       id,
		Platform: platform,
		Name: models.PlayerName{
			DisplayName:       card.DisplayName,
			BungieDisplayName: card.BungieGlobalDisplayName,
		},
	}
	if card.BungieGlobalDisplayNameCode != nil {
		member.Name.BungieDisplayNameCode = models.FormatNameCode(*card.BungieGlobalDisplayNameCode)
	}

	return member, nil
}

// SearchPlayerResponse is the response from the bungie name search endpoint.
type SearchPlayerResponse struct {
	*BaseResponse
	Response []*UserInfoCard `json:"Response"`
}

// LinkedProfile is one platform profile attached to a membership.
type LinkedProfile struct {
	MembershipType              int       `json:"membershipType"`
	MembershipID                string    `json:"membershipId"`
	DisplayName                 string    `json:"displayName"`
	BungieGlobalDisplayName     string    `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode *int      `json:"bungieGlobalDisplayNameCode"`
	CrossSaveOverride           int       `json:"crossSaveOverride"`
	DateLastPlayed              time.Time `json:"dateLastPlayed"`
}

// ToMember converts a linked profile to the domain Member.
func (profile *LinkedProfile) ToMember() (*models.Member, error) {
	id, err := strconv.ParseInt(profile.MembershipID, 10, 64)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		ID:       id,
		Platform: models.PlatformFromID(profile.MembershipType),
		Name: models.PlayerName{
			DisplayName:       profile.DisplayName,
			BungieDisplayName: profile.BungieGlobalDisplayName,
		},
	}
	if profile.BungieGlobalDisplayNameCode != nil {
		member.Name.BungieDisplayNameCode = models.FormatNameCode(*profile.BungieGlobalDisplayNameCode)
	}

	return member, nil
}

// LinkedProfilesResponse is the response from the linked profiles endpoint.
type LinkedProfilesResponse struct {
	*BaseResponse
	Response *struct {
		Profiles []*LinkedProfile `json:"profiles"`
	} `json:"Response"`
}

// GroupMembersResponse is one page of a clan roster.
type GroupMembersResponse struct {
	*BaseResponse
	Response *struct {
		Results []*struct {
			DestinyUserInfo *UserInfoCard `json:"destinyUserInfo"`
		} `json:"results"`
		TotalResults int  `json:"totalResults"`
		HasMore      bool `json:"hasMore"`
	} `json:"Response"`
}

// CharacterComponent is the per character block from the profile endpoint.
// https://bungie-net.github.io/multi/schema_Destiny-Entities-Characters-DestinyCharacterComponent.html
type CharacterComponent struct {
	CharacterID    string    `json:"characterId"`
	ClassType      int       `json:"classType"`
	DateLastPlayed time.Time `json:"dateLastPlayed"`
	Light          int       `json:"light"`
	EmblemHash     uint32    `json:"emblemHash"`
}

// GetProfileResponse is the response from the GetProfile endpoint with the
// profile and characters components requested.
type GetProfileResponse struct {
	*BaseResponse
	Response *struct {
		Profile *struct {
			Data *struct {
				UserInfo *UserInfoCard `json:"userInfo"`
			} `json:"data"`
		} `json:"profile"`
		Characters *struct {
			Data map[string]*CharacterComponent `json:"data"`
		} `json:"characters"`
	} `json:"Response"`
}

// PlayerInfo is the flattened result of the profile call: the resolved
// member plus its characters.
type PlayerInfo struct {
	Member     *models.Member
	Characters []*models.Character
}

// ActivityDetails identifies the playlist and instance an activity ran on.
type ActivityDetails struct {
	ReferenceID          uint32        `json:"referenceId"`
	DirectorActivityHash uint32        `json:"directorActivityHash"`
	InstanceID           string        `json:"instanceId"`
	Mode                 models.Mode   `json:"mode"`
	Modes                []models.Mode `json:"modes"`
	IsPrivate            bool          `json:"isPrivate"`
	MembershipType       int           `json:"membershipType"`
}

// InstanceIDInt parses the string instance id to the signed 64 bit value it
// actually is.
func (details *ActivityDetails) InstanceIDInt() (int64, error) {
	return strconv.ParseInt(details.InstanceID, 10, 64)
}

// ActivityHistoryEntry is one activity summary from the history endpoint.
type ActivityHistoryEntry struct {
	Period          time.Time            `json:"period"`
	ActivityDetails ActivityDetails      `json:"activityDetails"`
	Values          map[string]StatValue `json:"values"`
}

// ActivityHistoryResponse is one page of activity history.
type ActivityHistoryResponse struct {
	*BaseResponse
	Response *struct {
		Activities []*ActivityHistoryEntry `json:"activities"`
	} `json:"Response"`
}

// PGCRPlayer is the player block of a carnage report entry.
type PGCRPlayer struct {
	DestinyUserInfo UserInfoCard `json:"destinyUserInfo"`
	CharacterClass  string       `json:"characterClass"`
	ClassHash       uint32       `json:"classHash"`
	CharacterLevel  int          `json:"characterLevel"`
	LightLevel      int          `json:"lightLevel"`
	EmblemHash      uint32       `json:"emblemHash"`
}

// PGCRWeapon is the per weapon breakdown inside an entry's extended block.
type PGCRWeapon struct {
	ReferenceID uint32               `json:"referenceId"`
	Values      map[string]StatValue `json:"values"`
}

// Kills returns the unique weapon kill count.
func (weapon *PGCRWeapon) Kills() int {
	return statInt(weapon.Values, "uniqueWeaponKills")
}

// PrecisionKills returns the unique weapon precision kill count.
func (weapon *PGCRWeapon) PrecisionKills() int {
	return statInt(weapon.Values, "uniqueWeaponPrecisionKills")
}

// PrecisionRatio returns the precision kills to kills ratio.
func (weapon *PGCRWeapon) PrecisionRatio() float64 {
	if value, ok := weapon.Values["uniqueWeaponKillsPrecisionKills"]; ok {
		return value.Basic.Value
	}

	return 0
}

// PGCRExtended carries the extended counters and the medal values for an
// entry. Older PGCRs can omit it entirely.
type PGCRExtended struct {
	Weapons []*PGCRWeapon        `json:"weapons"`
	Values  map[string]StatValue `json:"values"`
}

// extendedStatKeys are the non medal keys that live in extended.values.
var extendedStatKeys = map[string]bool{
	"precisionKills":     true,
	"weaponKillsAbility": true,
	"weaponKillsGrenade": true,
	"weaponKillsMelee":   true,
	"weaponKillsSuper":   true,
	"allMedalsEarned":    true,
}

// Medals returns the medal id to count pairs from the extended values,
// skipping the known stat counters.
func (extended *PGCRExtended) Medals() map[string]int {
	medals := make(map[string]int)
	for key, value := range extended.Values {
		if extendedStatKeys[key] {
			continue
		}

		if count := value.Int(); count > 0 {
			medals[key] = count
		}
	}

	return medals
}

// PGCREntry is one participating character's slice of a carnage report.
type PGCREntry struct {
	Standing    int                  `json:"standing"`
	Score       StatValue            `json:"score"`
	Player      PGCRPlayer           `json:"player"`
	CharacterID string               `json:"characterId"`
	Values      map[string]StatValue `json:"values"`
	Extended    *PGCRExtended        `json:"extended"`
}

// CharacterIDInt parses the string character id.
func (entry *PGCREntry) CharacterIDInt() (int64, error) {
	return strconv.ParseInt(entry.CharacterID, 10, 64)
}

// Stat reads a named stat from the entry's values block, zero when absent.
func (entry *PGCREntry) Stat(key string) int {
	return statInt(entry.Values, key)
}

// Stat64 reads a named stat as an int64, used for fireteam ids.
func (entry *PGCREntry) Stat64(key string) int64 {
	return statInt64(entry.Values, key)
}

// ExtendedStat reads a named stat from the extended block, zero when the
// block is missing.
func (entry *PGCREntry) ExtendedStat(key string) int {
	if entry.Extended == nil {
		return 0
	}

	return statInt(entry.Extended.Values, key)
}

// PGCRTeam is one team result row of a carnage report.
type PGCRTeam struct {
	TeamID   int       `json:"teamId"`
	Standing StatValue `json:"standing"`
	Score    StatValue `json:"score"`
}

// PostGameCarnageReport is the full per match detail record.
type PostGameCarnageReport struct {
	Period          time.Time       `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
	Entries         []*PGCREntry    `json:"entries"`
	Teams           []*PGCRTeam     `json:"teams"`
}

// HasMode reports whether the mode is present in the report's mode set.
func (pgcr *PostGameCarnageReport) HasMode(mode models.Mode) bool {
	for _, existing := range pgcr.ActivityDetails.Modes {
		if existing == mode {
			return true
		}
	}

	return false
}

// AddMode appends the mode to the report's mode set if it isn't already a
// member. Adding is idempotent.
func (pgcr *PostGameCarnageReport) AddMode(mode models.Mode) bool {
	if pgcr.HasMode(mode) {
		return false
	}

	pgcr.ActivityDetails.Modes = append(pgcr.ActivityDetails.Modes, mode)
	return true
}

// PGCRResponse wraps a carnage report in the envelope.
type PGCRResponse struct {
	*BaseResponse
	Response *PostGameCarnageReport `json:"Response"`
}

// HistoricalStatsPeriod is one daily bucket of aggregate stats.
type HistoricalStatsPeriod struct {
	Period time.Time            `json:"periodStart"`
	Values map[string]StatValue `json:"values"`
}

// HistoricalStatsBlock is the aggregate stats for one mode group.
type HistoricalStatsBlock struct {
	AllTime map[string]StatValue     `json:"allTime"`
	Daily   []*HistoricalStatsPeriod `json:"daily"`
}

// HistoricalStatsResponse is the response from the aggregate stats endpoint,
// keyed by the camel cased mode name ("allPvP", "ironBanner", ...).
type HistoricalStatsResponse struct {
	*BaseResponse
	Response map[string]*HistoricalStatsBlock `json:"Response"`
}
