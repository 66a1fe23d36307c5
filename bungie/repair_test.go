package bungie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mikechambers/dcli-sub000/models"
)

func repairablePGCR(mode models.Mode, hash uint32, period time.Time) *PostGameCarnageReport {
	return &PostGameCarnageReport{
		Period: period,
		ActivityDetails: ActivityDetails{
			InstanceID:           "12345",
			DirectorActivityHash: hash,
			Mode:                 mode,
			Modes:                []models.Mode{mode},
		},
	}
}

func TestFixPGCRDataIronBannerZoneControl(t *testing.T) {
	pgcr := repairablePGCR(models.ModeIronBannerZoneControl, 111, time.Now())

	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeIronBannerZoneControl, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModeAllPvP))
	assert.True(t, pgcr.HasMode(models.ModeIronBanner))

	// A second application changes nothing.
	assert.False(t, FixPGCRData(pgcr))
	assert.Len(t, pgcr.ActivityDetails.Modes, 3)
}

func TestFixPGCRDataModeless(t *testing.T) {
	pgcr := repairablePGCR(models.ModeNone, 2259621230, time.Now())

	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeRumble, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModeRumble))
	assert.True(t, pgcr.HasMode(models.ModeAllPvP))

	pgcr = repairablePGCR(models.ModeNone, 1113451448, time.Now())
	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeRift, pgcr.ActivityDetails.Mode)
}

func TestFixPGCRDataModelessUnknownHash(t *testing.T) {
	pgcr := repairablePGCR(models.ModeNone, 424242, time.Now())

	assert.False(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeNone, pgcr.ActivityDetails.Mode)
}

func TestFixPGCRDataPrivateMatch(t *testing.T) {
	pgcr := repairablePGCR(models.ModePrivateMatchesAll, 4242525388, time.Now())

	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModePrivateMatchesClash, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModePrivateMatchesClash))
	assert.True(t, pgcr.HasMode(models.ModeClash))
	assert.True(t, pgcr.HasMode(models.ModePrivateMatchesAll))

	pgcr = repairablePGCR(models.ModePrivateMatchesAll, 2509284661, time.Now())
	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModePrivateMatchesSurvival, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModeSurvival))
}

func TestFixPGCRDataCompetitiveAfterSeraph(t *testing.T) {
	after := SeasonOfTheSeraphStart.Add(time.Hour)

	pgcr := repairablePGCR(models.ModeNone, CompetitivePvPActivityHash, after)
	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeRift, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModePvPCompetitive))
	assert.True(t, pgcr.HasMode(models.ModeAllPvP))

	pgcr = repairablePGCR(models.ModeShowdown, FreelanceCompetitivePvPActivityHash, after)
	assert.True(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeShowdown, pgcr.ActivityDetails.Mode)
	assert.True(t, pgcr.HasMode(models.ModePvPCompetitive))
}

func TestFixPGCRDataCompetitiveBeforeSeraph(t *testing.T) {
	before := SeasonOfTheSeraphStart.Add(-time.Hour)

	pgcr := repairablePGCR(models.ModeNone, CompetitivePvPActivityHash, before)
	assert.False(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeNone, pgcr.ActivityDetails.Mode)
}

func TestFixPGCRDataUntouched(t *testing.T) {
	pgcr := repairablePGCR(models.ModeControl, 999, time.Now())
	pgcr.AddMode(models.ModeAllPvP)

	assert.False(t, FixPGCRData(pgcr))
	assert.Equal(t, models.ModeControl, pgcr.ActivityDetails.Mode)
}

func TestAddModeIdempotent(t *testing.T) {
	pgcr := repairablePGCR(models.ModeControl, 1, time.Now())

	assert.True(t, pgcr.AddMode(models.ModeAllPvP))
	assert.False(t, pgcr.AddMode(models.ModeAllPvP))
	assert.Len(t, pgcr.ActivityDetails.Modes, 2)
}
