package models

// Platform is the membership type a Destiny account lives on. The integer
// values are the Bungie API BungieMembershipType values.
type Platform int

const (
	PlatformUnknown Platform = 0
	PlatformXbox    Platform = 1
	PlatformPsn     Platform = 2
	PlatformSteam   Platform = 3
	PlatformStadia  Platform = 5
	PlatformEgs     Platform = 6
)

var platformNames = map[Platform]string{
	PlatformUnknown: "Unknown",
	PlatformXbox:    "Xbox",
	PlatformPsn:     "PlayStation",
	PlatformSteam:   "Steam",
	PlatformStadia:  "Stadia",
	PlatformEgs:     "Epic",
}

func (platform Platform) String() string {
	if name, ok := platformNames[platform]; ok {
		return name
	}

	return "Unknown"
}

// PlatformFromID maps an upstream membership type to a Platform, falling back
// to PlatformUnknown for any unmapped value.
func PlatformFromID(id int) Platform {
	if _, ok := platformNames[Platform(id)]; ok {
		return Platform(id)
	}

	return PlatformUnknown
}
