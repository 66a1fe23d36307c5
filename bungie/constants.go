package bungie

import "time"

// Constant API endpoints. PGCR requests go through the stats host, the split
// exists because Bungie rate limits the carnage report endpoint separately.
const (
	PlatformAPIBase = "https://www.bungie.net/Platform"
	StatsAPIBase    = "https://stats.bungie.net/Platform"

	SearchPlayerEndpointFormat    = "%s/Destiny2/SearchDestinyPlayerByBungieName/All/"
	LinkedProfilesEndpointFormat  = "%s/Destiny2/%d/Profile/%d/LinkedProfiles/?getAllMemberships=true"
	GroupMembersEndpointFormat    = "%s/GroupV2/%d/Members/?currentpage=%d"
	GetProfileEndpointFormat      = "%s/Destiny2/%d/Profile/%d/?components=100,200"
	ActivityHistoryEndpointFormat = "%s/Destiny2/%d/Account/%d/Character/%d/Stats/Activities/?mode=%d&count=%d&page=%d"
	PostGameCarnageEndpointFormat = "%s/Destiny2/Stats/PostGameCarnageReport/%d/"
	AggregateStatsEndpointFormat  = "%s/Destiny2/%d/Account/%d/Character/%d/Stats/?modes=%d&groups=1&periodType=%d"
)

// Envelope error codes returned by the Bungie API. Code 1 is the only
// success value; everything else maps to an error kind.
const (
	errorCodeSuccess           = 1
	errorCodeUnavailable       = 5
	errorCodeParameterParse    = 7
	errorCodeInvalidParameters = 18
	errorCodePrivacy           = 1665
	errorCodeAPIKeyMissing     = 2102
)

const (
	// MaxActivitiesRequestCount is the page size used when walking activity
	// history. 250 is the largest count the endpoint accepts.
	MaxActivitiesRequestCount = 250

	// PGCRRequestChunkSize is how many carnage report requests are put in
	// flight at once during the fetch phase. Calibrated to what the stats
	// host tolerates; configurable at the engine level.
	PGCRRequestChunkSize = 50

	// RequestTimeout is the per request deadline for every API call.
	RequestTimeout = 10 * time.Second
)

// GambitPrivateMatchHashes are director activity hashes for gambit private
// matches. These leak into PvP activity history for private games and have
// to be filtered out at discovery.
var GambitPrivateMatchHashes = map[uint32]bool{
	2526740498: true,
	248695599:  true,
}

// Director activity hashes for the post-Seraph competitive playlists. PGCRs
// for these sometimes arrive with no mode at all.
const (
	CompetitivePvPActivityHash          uint32 = 2754695317
	FreelanceCompetitivePvPActivityHash uint32 = 122988764
)

// SeasonOfTheSeraphStart is when the competitive playlist rework shipped.
// The mode repair heuristics for competitive PGCRs only apply after it.
var SeasonOfTheSeraphStart = time.Date(2022, time.December, 6, 17, 0, 0, 0, time.UTC)
