// Package server exposes the query engine over a small read-only JSON API.
// It never writes to the store and is not meant to run while the sync daemon
// is writing.
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kpango/glg"
	"github.com/pkg/errors"

	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/models"
)

// Server wires the query engine into HTTP handlers.
type Server struct {
	store   *db.Store
	queries *db.Queries
}

// New builds a server over an open store and its query side.
func New(store *db.Store, queries *db.Queries) *Server {
	return &Server{store: store, queries: queries}
}

// Router builds the gin engine with every route registered.
func (server *Server) Router() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	api.GET("/player/:name/last", server.handleLastActivity)
	api.GET("/player/:name/activities", server.handleActivities)
	api.GET("/player/:name/summary", server.handleSummary)

	return router
}

// Run serves the API on the provided address until the listener fails.
func (server *Server) Run(addr string) error {
	glg.Infof("Serving query API on %s", addr)
	return server.Router().Run(addr)
}

// requestParams are the query filters shared by every route.
type requestParams struct {
	member    *models.Member
	selection models.CharacterSelection
	mode      models.Mode
	period    *models.DateTimePeriod
}

// parseParams resolves the player from the stored members and reads the
// common filter parameters. The player must have been synced at least once.
func (server *Server) parseParams(c *gin.Context) (*requestParams, bool) {
	name, err := models.ParseBungieName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	member, err := server.store.GetMemberByName(name)
	if err != nil {
		if errors.Is(err, db.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		} else {
			glg.Errorf("Member lookup failed: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		}
		return nil, false
	}

	params := &requestParams{
		member:    member,
		selection: parseSelection(c.DefaultQuery("class", "all")),
		mode:      models.ModeAllPvP,
	}

	if raw := c.Query("mode"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
			return nil, false
		}
		params.mode = models.ModeFromID(id)
	}

	start := time.Unix(0, 0)
	end := time.Now().UTC()
	if raw := c.Query("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
			return nil, false
		}
	}
	if raw := c.Query("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
			return nil, false
		}
	}

	if params.period, err = models.NewDateTimePeriod(start, end); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	return params, true
}

func parseSelection(value string) models.CharacterSelection {
	switch strings.ToLower(value) {
	case "titan":
		return models.SelectionTitan
	case "hunter":
		return models.SelectionHunter
	case "warlock":
		return models.SelectionWarlock
	case "last":
		return models.SelectionLastActive
	}

	return models.SelectionAll
}

func (server *Server) handleLastActivity(c *gin.Context) {
	params, ok := server.parseParams(c)
	if !ok {
		return
	}

	activity, err := server.queries.RetrieveLastActivity(params.member.ID, params.selection, params.mode)
	if err != nil {
		if errors.Is(err, db.ErrActivityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no matching activity"})
			return
		}

		glg.Errorf("Last activity query failed: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (server *Server) handleActivities(c *gin.Context) {
	params, ok := server.parseParams(c)
	if !ok {
		return
	}

	performances, err := server.queries.RetrieveActivitiesSince(params.member.ID,
		params.selection, params.mode, params.period)
	if err != nil {
		glg.Errorf("Activities query failed: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	if performances == nil {
		performances = []*models.ActivityPerformance{}
	}

	c.JSON(http.StatusOK, gin.H{"activities": performances})
}

func (server *Server) handleSummary(c *gin.Context) {
	params, ok := server.parseParams(c)
	if !ok {
		return
	}

	summary, err := server.queries.RetrieveActivitiesSummary(params.member.ID,
		params.selection, params.mode, params.period)
	if err != nil {
		glg.Errorf("Summary query failed: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":        summary,
		"wins":           summary.Wins,
		"losses":         summary.Losses(),
		"win_percentage": summary.WinPercentage(),
		"efficiency":     summary.Efficiency(),
		"kd":             summary.KillsDeathsRatio(),
	})
}
