package bungie

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kpango/glg"
	"github.com/pkg/errors"

	"github.com/mikechambers/dcli-sub000/models"
)

// Aggregate stats period types accepted by the stats endpoint.
const (
	PeriodTypeDaily   = 1
	PeriodTypeAllTime = 2
)

// API exposes the typed Bungie operations the engine consumes. All
// operations go through one Client and can fail with the transport, parse,
// and status kinds from this package.
type API struct {
	client       *Client
	platformBase string
	statsBase    string
}

// NewAPI creates an API bound to the production Bungie hosts.
func NewAPI(client *Client) *API {
	return &API{
		client:       client,
		platformBase: PlatformAPIBase,
		statsBase:    StatsAPIBase,
	}
}

// SetHosts points the API at different base URLs. Used to aim at a local
// test server.
func (api *API) SetHosts(platformBase, statsBase string) {
	api.platformBase = platformBase
	api.statsBase = statsBase
}

// ResolvePlayer looks a member up by bungie name and resolves the canonical
// platform through the cross-save tiebreak. A nil member with a nil error
// means the upstream reported success with no data.
func (api *API) ResolvePlayer(ctx context.Context, name *models.PlayerName) (*models.Member, error) {
	code, err := strconv.Atoi(name.BungieDisplayNameCode)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid bungie name code: %s", name.BungieDisplayNameCode)
	}

	body, err := json.Marshal(map[string]interface{}{
		"displayName":     name.BungieDisplayName,
		"displayNameCode": code,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode player search body")
	}

	endpoint := fmt.Sprintf(SearchPlayerEndpointFormat, api.platformBase)
	_, data, err := api.client.Post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	response := SearchPlayerResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse player search response")
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}
	if response.Response == nil {
		return nil, nil
	}
	if len(response.Response) == 0 {
		return nil, ErrBungieNameNotFound
	}

	return api.pickCandidate(ctx, response.Response)
}

// pickCandidate applies the cross-save tiebreak to a list of membership
// cards. When cross-save is fully enabled on every card, the card whose
// membership type matches its own override wins. When any card has an
// unknown override the linked profiles decide by most recent play time.
func (api *API) pickCandidate(ctx context.Context, candidates []*UserInfoCard) (*models.Member, error) {
	anyUnknownOverride := false
	for _, candidate := range candidates {
		if models.PlatformFromID(candidate.CrossSaveOverride) == models.PlatformUnknown {
			anyUnknownOverride = true
			break
		}
	}

	if !anyUnknownOverride {
		for _, candidate := range candidates {
			if candidate.MembershipType == candidate.CrossSaveOverride {
				return candidate.ToMember()
			}
		}

		return candidates[0].ToMember()
	}

	first, err := candidates[0].ToMember()
	if err != nil {
		return nil, err
	}

	profiles, err := api.GetLinkedProfiles(ctx, first.ID, first.Platform)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return first, nil
	}

	latest := profiles[0]
	for _, profile := range profiles[1:] {
		if profile.DateLastPlayed.After(latest.DateLastPlayed) {
			latest = profile
		}
	}

	return latest.ToMember()
}

// GetLinkedProfiles fetches every platform profile linked to a membership.
func (api *API) GetLinkedProfiles(ctx context.Context, memberID int64, platform models.Platform) ([]*LinkedProfile, error) {
	endpoint := fmt.Sprintf(LinkedProfilesEndpointFormat, api.platformBase, platform, memberID)
	_, data, err := api.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response := LinkedProfilesResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse linked profiles response")
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}
	if response.Response == nil {
		return nil, nil
	}

	return response.Response.Profiles, nil
}

// ListGroupMembers walks every page of a clan roster. Entries without a
// valid bungie name are still returned; callers decide what to do with them.
func (api *API) ListGroupMembers(ctx context.Context, groupID int64) ([]*models.Member, error) {
	var members []*models.Member

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf(GroupMembersEndpointFormat, api.platformBase, groupID, page)
		_, data, err := api.client.Get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		response := GroupMembersResponse{}
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, errors.Wrap(err, "failed to parse group members response")
		}
		if err := checkEnvelope(response.BaseResponse); err != nil {
			return nil, err
		}
		if response.Response == nil {
			break
		}

		for _, result := range response.Response.Results {
			if result.DestinyUserInfo == nil {
				continue
			}

			member, err := result.DestinyUserInfo.ToMember()
			if err != nil {
				glg.Warnf("Skipping group member with unparseable id: %s", err.Error())
				continue
			}
			members = append(members, member)
		}

		if !response.Response.HasMore {
			break
		}
	}

	return members, nil
}

// GetPlayerInfo loads the profile and character list for a member.
func (api *API) GetPlayerInfo(ctx context.Context, memberID int64, platform models.Platform) (*PlayerInfo, error) {
	endpoint := fmt.Sprintf(GetProfileEndpointFormat, api.platformBase, platform, memberID)
	_, data, err := api.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response := GetProfileResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse profile response")
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}
	if response.Response == nil || response.Response.Profile == nil ||
		response.Response.Profile.Data == nil || response.Response.Profile.Data.UserInfo == nil {
		return nil, ErrAPIResponseMissing
	}

	member, err := response.Response.Profile.Data.UserInfo.ToMember()
	if err != nil {
		return nil, err
	}

	info := &PlayerInfo{Member: member}
	if response.Response.Characters != nil {
		for _, component := range response.Response.Characters.Data {
			characterID, err := strconv.ParseInt(component.CharacterID, 10, 64)
			if err != nil {
				glg.Warnf("Skipping character with unparseable id %s: %s", component.CharacterID, err.Error())
				continue
			}

			info.Characters = append(info.Characters, &models.Character{
				ID:       characterID,
				MemberID: member.ID,
				Class:    models.ClassFromID(component.ClassType),
			})
		}
	}

	return info, nil
}

// ListActivitiesPage fetches one page of activity summaries. A nil slice
// with a nil error means the page is past the end of the member's history.
func (api *API) ListActivitiesPage(ctx context.Context, memberID, characterID int64,
	platform models.Platform, mode models.Mode, count, page int) ([]*ActivityHistoryEntry, error) {

	endpoint := fmt.Sprintf(ActivityHistoryEndpointFormat, api.platformBase,
		platform, memberID, characterID, mode, count, page)
	_, data, err := api.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response := ActivityHistoryResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse activity history response")
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}
	if response.Response == nil {
		// A success envelope with no Response means the member has no more
		// history, not a failure.
		return nil, nil
	}

	return response.Response.Activities, nil
}

// ListActivitiesSinceID pages through activity history until the sentinel
// instance id is seen, a page comes back empty or short, or the upstream
// signals no data. Results are in upstream order, newest first; the caller
// reverses when it needs chronological order.
func (api *API) ListActivitiesSinceID(ctx context.Context, memberID, characterID int64,
	platform models.Platform, mode models.Mode, sentinelID int64) ([]*ActivityHistoryEntry, error) {

	var out []*ActivityHistoryEntry

	for page := 0; ; page++ {
		entries, err := api.ListActivitiesPage(ctx, memberID, characterID, platform,
			mode, MaxActivitiesRequestCount, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		sentinelSeen := false
		for _, entry := range entries {
			instanceID, err := entry.ActivityDetails.InstanceIDInt()
			if err != nil {
				glg.Warnf("Skipping activity with unparseable instance id %s: %s",
					entry.ActivityDetails.InstanceID, err.Error())
				continue
			}
			if instanceID == sentinelID {
				sentinelSeen = true
				break
			}

			out = append(out, entry)
		}

		if sentinelSeen || len(entries) < MaxActivitiesRequestCount {
			break
		}
	}

	return out, nil
}

// GetPGCR fetches one post game carnage report by instance id. A nil report
// with a nil error means the upstream reported success with an empty
// response, which happens for instances still being processed.
func (api *API) GetPGCR(ctx context.Context, instanceID int64) (*PostGameCarnageReport, error) {
	endpoint := fmt.Sprintf(PostGameCarnageEndpointFormat, api.statsBase, instanceID)
	_, data, err := api.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response := PGCRResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to parse pgcr %d", instanceID)
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}

	return response.Response, nil
}

// GetAggregateStats fetches historical stat blocks for a character, keyed by
// the camel cased mode name. periodType selects daily buckets or all time
// totals.
func (api *API) GetAggregateStats(ctx context.Context, memberID, characterID int64,
	platform models.Platform, mode models.Mode, periodType int) (map[string]*HistoricalStatsBlock, error) {

	endpoint := fmt.Sprintf(AggregateStatsEndpointFormat, api.platformBase,
		platform, memberID, characterID, mode, periodType)
	_, data, err := api.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response := HistoricalStatsResponse{}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse aggregate stats response")
	}
	if err := checkEnvelope(response.BaseResponse); err != nil {
		return nil, err
	}

	return response.Response, nil
}
