package bungie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikechambers/dcli-sub000/models"
)

// newTestAPI points an API at a local fake upstream.
func newTestAPI(t *testing.T, handler http.Handler) *API {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key")
	require.NoError(t, err)

	api := NewAPI(client)
	api.SetHosts(server.URL, server.URL)
	return api
}

func writeJSON(t *testing.T, w http.ResponseWriter, body interface{}) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func envelope(errorCode int, response interface{}) map[string]interface{} {
	return map[string]interface{}{
		"ErrorCode":   errorCode,
		"ErrorStatus": "Status",
		"Message":     "message",
		"Response":    response,
	}
}

func TestEnvelopeErrorMapping(t *testing.T) {
	cases := []struct {
		code     int
		expected error
	}{
		{5, ErrDestinyUnavailable},
		{7, ErrParameterParse},
		{18, ErrInvalidParameters},
		{1665, ErrPrivacy},
		{2102, ErrAPIKeyMissing},
	}

	for _, tc := range cases {
		api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, envelope(tc.code, nil))
		}))

		_, err := api.GetPGCR(context.Background(), 1)
		assert.ErrorIs(t, err, tc.expected, "code %d", tc.code)
	}

	// Unmapped codes surface the full status triple.
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(99, nil))
	}))
	_, err := api.GetPGCR(context.Background(), 1)
	statusErr := &APIStatusError{}
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 99, statusErr.ErrorCode)
}

func TestGetPGCRSuccessEmpty(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1, nil))
	}))

	pgcr, err := api.GetPGCR(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, pgcr)
}

func TestRequestHeaders(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(t, w, envelope(1, nil))
	}))

	_, err := api.GetPGCR(context.Background(), 1)
	require.NoError(t, err)
}

func searchCard(id string, membershipType, crossSaveOverride int) map[string]interface{} {
	return map[string]interface{}{
		"membershipId":                id,
		"membershipType":              membershipType,
		"crossSaveOverride":           crossSaveOverride,
		"displayName":                 "player",
		"bungieGlobalDisplayName":     "player",
		"bungieGlobalDisplayNameCode": 1234,
	}
}

func TestResolvePlayerCrossSaveTiebreak(t *testing.T) {
	// Every card carries a known override: the card whose own type matches
	// the override wins.
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1, []interface{}{
			searchCard("100", 1, 3),
			searchCard("200", 3, 3),
		}))
	}))

	name := &models.PlayerName{DisplayName: "player", BungieDisplayName: "player", BungieDisplayNameCode: "1234"}
	member, err := api.ResolvePlayer(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, int64(200), member.ID)
	assert.Equal(t, models.PlatformSteam, member.Platform)
}

func TestResolvePlayerUnknownOverrideUsesLinkedProfiles(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, envelope(1, []interface{}{searchCard("100", 1, 0)}))
			return
		}

		// Linked profiles pick the most recently played platform.
		writeJSON(t, w, envelope(1, map[string]interface{}{
			"profiles": []interface{}{
				map[string]interface{}{
					"membershipId":                "100",
					"membershipType":              1,
					"displayName":                 "player",
					"bungieGlobalDisplayName":     "player",
					"bungieGlobalDisplayNameCode": 1234,
					"dateLastPlayed":              "2023-01-01T00:00:00Z",
				},
				map[string]interface{}{
					"membershipId":                "300",
					"membershipType":              3,
					"displayName":                 "player",
					"bungieGlobalDisplayName":     "player",
					"bungieGlobalDisplayNameCode": 1234,
					"dateLastPlayed":              "2024-06-01T00:00:00Z",
				},
			},
		}))
	}))

	name := &models.PlayerName{DisplayName: "player", BungieDisplayName: "player", BungieDisplayNameCode: "1234"}
	member, err := api.ResolvePlayer(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, int64(300), member.ID)
	assert.Equal(t, models.PlatformSteam, member.Platform)
}

func TestResolvePlayerNotFound(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1, []interface{}{}))
	}))

	name := &models.PlayerName{DisplayName: "player", BungieDisplayName: "player", BungieDisplayNameCode: "1234"}
	_, err := api.ResolvePlayer(context.Background(), name)
	assert.ErrorIs(t, err, ErrBungieNameNotFound)
}

func historyEntry(instanceID int64) map[string]interface{} {
	return map[string]interface{}{
		"period": "2023-03-01T00:00:00Z",
		"activityDetails": map[string]interface{}{
			"instanceId":           strconv.FormatInt(instanceID, 10),
			"directorActivityHash": 1,
			"referenceId":          2,
			"mode":                 5,
			"modes":                []int{5},
			"membershipType":       3,
		},
	}
}

func TestListActivitiesSinceIDStopsAtSentinel(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One short page: 10 down to 6, with 7 as the sentinel.
		writeJSON(t, w, envelope(1, map[string]interface{}{
			"activities": []interface{}{
				historyEntry(10), historyEntry(9), historyEntry(8),
				historyEntry(7), historyEntry(6),
			},
		}))
	}))

	entries, err := api.ListActivitiesSinceID(context.Background(), 1, 2,
		models.PlatformSteam, models.ModeAllPvP, 7)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Upstream order is preserved, newest first.
	assert.Equal(t, "10", entries[0].ActivityDetails.InstanceID)
	assert.Equal(t, "8", entries[2].ActivityDetails.InstanceID)
}

func TestListActivitiesSinceIDPagination(t *testing.T) {
	requests := 0
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		if page == 0 {
			full := make([]interface{}, MaxActivitiesRequestCount)
			for i := range full {
				full[i] = historyEntry(int64(1000 - i))
			}
			writeJSON(t, w, envelope(1, map[string]interface{}{"activities": full}))
			return
		}

		writeJSON(t, w, envelope(1, map[string]interface{}{
			"activities": []interface{}{historyEntry(5), historyEntry(4)},
		}))
	}))

	entries, err := api.ListActivitiesSinceID(context.Background(), 1, 2,
		models.PlatformSteam, models.ModeAllPvP, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, entries, MaxActivitiesRequestCount+2)
	assert.Equal(t, "1000", entries[0].ActivityDetails.InstanceID)
	assert.Equal(t, "4", entries[len(entries)-1].ActivityDetails.InstanceID)
}

func TestListActivitiesSinceIDNoData(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1, nil))
	}))

	entries, err := api.ListActivitiesSinceID(context.Background(), 1, 2,
		models.PlatformSteam, models.ModeAllPvP, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListGroupMembersPages(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("currentpage")

		result := func(id string) map[string]interface{} {
			return map[string]interface{}{"destinyUserInfo": searchCard(id, 3, 3)}
		}

		if page == "1" {
			writeJSON(t, w, envelope(1, map[string]interface{}{
				"results": []interface{}{result("1"), result("2")},
				"hasMore": true,
			}))
			return
		}

		writeJSON(t, w, envelope(1, map[string]interface{}{
			"results": []interface{}{result("3")},
			"hasMore": false,
		}))
	}))

	members, err := api.ListGroupMembers(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, int64(1), members[0].ID)
	assert.Equal(t, int64(3), members[2].ID)
}

func TestGetAggregateStats(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("modes"))
		assert.Equal(t, strconv.Itoa(PeriodTypeAllTime), r.URL.Query().Get("periodType"))

		writeJSON(t, w, envelope(1, map[string]interface{}{
			"allPvP": map[string]interface{}{
				"allTime": map[string]interface{}{
					"kills": map[string]interface{}{
						"basic": map[string]interface{}{"value": 1234.0, "displayValue": "1234"},
					},
					"killsDeathsRatio": map[string]interface{}{
						"basic": map[string]interface{}{"value": 1.5, "displayValue": "1.50"},
					},
				},
			},
		}))
	}))

	blocks, err := api.GetAggregateStats(context.Background(), 1, 2,
		models.PlatformSteam, models.ModeAllPvP, PeriodTypeAllTime)
	require.NoError(t, err)

	block := blocks["allPvP"]
	require.NotNil(t, block)
	assert.Equal(t, 1234.0, block.AllTime["kills"].Basic.Value)
	assert.Equal(t, 1.5, block.AllTime["killsDeathsRatio"].Basic.Value)
}

func TestGetAggregateStatsEnvelopeError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1665, nil))
	}))

	_, err := api.GetAggregateStats(context.Background(), 1, 2,
		models.PlatformSteam, models.ModeAllPvP, PeriodTypeAllTime)
	assert.ErrorIs(t, err, ErrPrivacy)
}

func TestGetPlayerInfo(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, envelope(1, map[string]interface{}{
			"profile": map[string]interface{}{
				"data": map[string]interface{}{"userInfo": searchCard("100", 3, 3)},
			},
			"characters": map[string]interface{}{
				"data": map[string]interface{}{
					"900": map[string]interface{}{"characterId": "900", "classType": 1},
				},
			},
		}))
	}))

	info, err := api.GetPlayerInfo(context.Background(), 100, models.PlatformSteam)
	require.NoError(t, err)
	assert.Equal(t, int64(100), info.Member.ID)
	require.Len(t, info.Characters, 1)
	assert.Equal(t, int64(900), info.Characters[0].ID)
	assert.Equal(t, models.ClassHunter, info.Characters[0].Class)
	assert.Equal(t, fmt.Sprintf("player#%s", "1234"), info.Member.Name.FullName())
}
