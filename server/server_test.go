package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seededServer(t *testing.T) *Server {
	t.Helper()

	store, err := db.OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	code := 1234
	pgcr := &bungie.PostGameCarnageReport{
		Period: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
		ActivityDetails: bungie.ActivityDetails{
			InstanceID:           "1000",
			DirectorActivityHash: 777,
			ReferenceID:          555,
			Mode:                 models.ModeControl,
			Modes:                []models.Mode{models.ModeControl, models.ModeAllPvP},
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
				Values: statValues(map[string]float64{
					"kills": 18, "deaths": 6, "assists": 4, "standing": 0,
					"team": 17, "completed": 1, "timePlayedSeconds": 540,
				}),
			},
		},
		Teams: []*bungie.PGCRTeam{},
	}

	require.NoError(t, store.EnqueueActivities(10, []int64{1000}))
	require.NoError(t, store.InsertActivity(pgcr, 10, nil))

	return New(store, db.NewQueries(store, nil))
}

func statValues(values map[string]float64) map[string]bungie.StatValue {
	out := make(map[string]bungie.StatValue, len(values))
	for key, value := range values {
		stat := bungie.StatValue{}
		stat.Basic.Value = value
		out[key] = stat
	}
	return out
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	server.Router().ServeHTTP(recorder, request)
	return recorder
}

func TestHandleLastActivity(t *testing.T) {
	server := seededServer(t)

	recorder := get(t, server, "/api/player/player%231234/last")
	require.Equal(t, http.StatusOK, recorder.Code)

	activity := &models.Activity{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), activity))
	assert.Equal(t, int64(1000), activity.Detail.ActivityID)
	require.Len(t, activity.Teams, 1)
	assert.Equal(t, models.VirtualTeamID, activity.Teams[0].ID)
}

func TestHandleSummary(t *testing.T) {
	server := seededServer(t)

	recorder := get(t, server, "/api/player/player%231234/summary")
	require.Equal(t, http.StatusOK, recorder.Code)

	body := struct {
		Summary models.ActivitySummary `json:"summary"`
		Wins    int                    `json:"wins"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Summary.TotalActivities)
	assert.Equal(t, 18, body.Summary.Kills)
	assert.Equal(t, 1, body.Wins)
}

func TestHandleActivities(t *testing.T) {
	server := seededServer(t)

	recorder := get(t, server, "/api/player/player%231234/activities?class=hunter")
	require.Equal(t, http.StatusOK, recorder.Code)

	body := struct {
		Activities []*models.ActivityPerformance `json:"activities"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Activities, 1)
	assert.Equal(t, 18, body.Activities[0].Stats.Kills)
}

func TestHandleUnknownPlayer(t *testing.T) {
	server := seededServer(t)

	recorder := get(t, server, "/api/player/nobody%230001/last")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandleBadName(t *testing.T) {
	server := seededServer(t)

	recorder := get(t, server, "/api/player/malformed/last")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
