package bungie

import (
	"github.com/kpango/glg"

	"github.com/mikechambers/dcli-sub000/models"
)

// The Bungie API misclassifies some activities, mostly private matches and
// the reworked competitive playlist. The functions here patch a PGCR in
// memory into a canonical (mode, modes) pair before it is persisted. All of
// them are pure aside from mutating the report they are handed.

// modelessHashRepairs maps director activity hashes to the primary mode for
// PGCRs that arrive with no mode at all.
var modelessHashRepairs = map[uint32]models.Mode{
	2259621230: models.ModeRumble,
	903584917:  models.ModeAllMayhem,
	3847433434: models.ModeAllMayhem,
	1113451448: models.ModeRift,
}

// privateHashRepair is one row of the private match repair table: the
// correct private sub-mode plus its public analogue.
type privateHashRepair struct {
	private models.Mode
	public  models.Mode
}

// privateHashRepairs maps director activity hashes for private matches that
// arrive tagged only as PrivateMatchesAll.
var privateHashRepairs = map[uint32]privateHashRepair{
	4242525388: {models.ModePrivateMatchesClash, models.ModeClash},
	559852413:  {models.ModePrivateMatchesClash, models.ModeClash},
	3176544780: {models.ModePrivateMatchesControl, models.ModeControl},
	2118462475: {models.ModePrivateMatchesControl, models.ModeControl},
	2955009825: {models.ModePrivateMatchesSupremacy, models.ModeSupremacy},
	910991990:  {models.ModePrivateMatchesSupremacy, models.ModeSupremacy},
	1505888634: {models.ModePrivateMatchesCountdown, models.ModeCountdown},
	3583966655: {models.ModePrivateMatchesCountdown, models.ModeCountdown},
	4288302346: {models.ModePrivateMatchesSurvival, models.ModeSurvival},
	2509284661: {models.ModePrivateMatchesSurvival, models.ModeSurvival},
	3239164160: {models.ModePrivateMatchesMayhem, models.ModeAllMayhem},
	1846702911: {models.ModePrivateMatchesMayhem, models.ModeAllMayhem},
	3838163355: {models.ModePrivateMatchesRumble, models.ModeRumble},
	157639802:  {models.ModePrivateMatchesRumble, models.ModeRumble},
}

// competitivePvPHashes are the playlists covered by the post-Seraph
// competitive repair heuristic.
var competitivePvPHashes = map[uint32]bool{
	CompetitivePvPActivityHash:          true,
	FreelanceCompetitivePvPActivityHash: true,
}

// FixPGCRData patches known upstream misclassifications on an inbound
// carnage report. It reports whether anything was changed, which is only
// used for diagnostics. Setting the primary mode always overwrites; adding
// to the mode set is idempotent.
func FixPGCRData(pgcr *PostGameCarnageReport) bool {
	changed := false
	details := &pgcr.ActivityDetails

	if details.Mode == models.ModeIronBannerZoneControl {
		changed = pgcr.AddMode(models.ModeAllPvP) || changed
		changed = pgcr.AddMode(models.ModeIronBanner) || changed
	}

	if details.Mode == models.ModeNone {
		if mode, ok := modelessHashRepairs[details.DirectorActivityHash]; ok {
			details.Mode = mode
			pgcr.AddMode(mode)
			pgcr.AddMode(models.ModeAllPvP)
			changed = true
		}
	}

	if details.Mode == models.ModePrivateMatchesAll {
		if repair, ok := privateHashRepairs[details.DirectorActivityHash]; ok {
			details.Mode = repair.private
			pgcr.AddMode(repair.private)
			pgcr.AddMode(repair.public)
			pgcr.AddMode(models.ModePrivateMatchesAll)
			changed = true
		}
	}

	if pgcr.Period.After(SeasonOfTheSeraphStart) && competitivePvPHashes[details.DirectorActivityHash] {
		if details.Mode == models.ModeNone {
			details.Mode = models.ModeRift
			pgcr.AddMode(models.ModeRift)
			pgcr.AddMode(models.ModePvPCompetitive)
			pgcr.AddMode(models.ModeAllPvP)
			changed = true
		}
		if details.Mode == models.ModeShowdown {
			changed = pgcr.AddMode(models.ModePvPCompetitive) || changed
		}
	}

	if changed {
		glg.Debugf("Repaired pgcr %s to mode %s", details.InstanceID, details.Mode)
	}

	return changed
}
