package models

// Mode represents a Destiny 2 activity mode. The integer values are defined
// by the Bungie API (DestinyActivityModeType) and are part of the wire
// contract, so they must be preserved exactly as they arrive.
type Mode int

// Activity mode values used throughout the Crucible pipeline. This is not the
// complete upstream enumeration, only the modes that can show up in PvP data.
const (
	ModeNone                    Mode = 0
	ModeAllPvP                  Mode = 5
	ModeControl                 Mode = 10
	ModeClash                   Mode = 12
	ModeCrimsonDoubles          Mode = 15
	ModeIronBanner              Mode = 19
	ModeAllMayhem               Mode = 25
	ModeSupremacy               Mode = 31
	ModePrivateMatchesAll       Mode = 32
	ModeSurvival                Mode = 37
	ModeCountdown               Mode = 38
	ModeTrialsOfTheNine         Mode = 39
	ModeIronBannerControl       Mode = 43
	ModeIronBannerClash         Mode = 44
	ModeIronBannerSupremacy     Mode = 45
	ModeRumble                  Mode = 48
	ModeAllDoubles              Mode = 49
	ModeDoubles                 Mode = 50
	ModePrivateMatchesClash     Mode = 51
	ModePrivateMatchesControl   Mode = 52
	ModePrivateMatchesSupremacy Mode = 53
	ModePrivateMatchesCountdown Mode = 54
	ModePrivateMatchesSurvival  Mode = 55
	ModePrivateMatchesMayhem    Mode = 56
	ModePrivateMatchesRumble    Mode = 57
	ModeShowdown                Mode = 59
	ModeLockdown                Mode = 60
	ModeScorched                Mode = 61
	ModeScorchedTeam            Mode = 62
	ModeBreakthrough            Mode = 65
	ModeSalvage                 Mode = 67
	ModeIronBannerSalvage       Mode = 68
	ModePvPCompetitive          Mode = 69
	ModePvPQuickplay            Mode = 70
	ModeClashQuickplay          Mode = 71
	ModeClashCompetitive        Mode = 72
	ModeControlQuickplay        Mode = 73
	ModeControlCompetitive      Mode = 74
	ModeElimination             Mode = 80
	ModeMomentum                Mode = 81
	ModeTrialsOfOsiris          Mode = 84
	ModeRift                    Mode = 88
	ModeZoneControl             Mode = 89
	ModeIronBannerRift          Mode = 90
	ModeIronBannerZoneControl   Mode = 91
	ModeUnknown                 Mode = -1
)

var modeNames = map[Mode]string{
	ModeNone:                    "None",
	ModeAllPvP:                  "All PvP",
	ModeControl:                 "Control",
	ModeClash:                   "Clash",
	ModeCrimsonDoubles:          "Crimson Doubles",
	ModeIronBanner:              "Iron Banner",
	ModeAllMayhem:               "Mayhem",
	ModeSupremacy:               "Supremacy",
	ModePrivateMatchesAll:       "Private Matches",
	ModeSurvival:                "Survival",
	ModeCountdown:               "Countdown",
	ModeTrialsOfTheNine:         "Trials of the Nine",
	ModeIronBannerControl:       "Iron Banner Control",
	ModeIronBannerClash:         "Iron Banner Clash",
	ModeIronBannerSupremacy:     "Iron Banner Supremacy",
	ModeRumble:                  "Rumble",
	ModeAllDoubles:              "Doubles",
	ModeDoubles:                 "Doubles",
	ModePrivateMatchesClash:     "Private Clash",
	ModePrivateMatchesControl:   "Private Control",
	ModePrivateMatchesSupremacy: "Private Supremacy",
	ModePrivateMatchesCountdown: "Private Countdown",
	ModePrivateMatchesSurvival:  "Private Survival",
	ModePrivateMatchesMayhem:    "Private Mayhem",
	ModePrivateMatchesRumble:    "Private Rumble",
	ModeShowdown:                "Showdown",
	ModeLockdown:                "Lockdown",
	ModeScorched:                "Scorched",
	ModeScorchedTeam:            "Team Scorched",
	ModeBreakthrough:            "Breakthrough",
	ModeSalvage:                 "Salvage",
	ModeIronBannerSalvage:       "Iron Banner Salvage",
	ModePvPCompetitive:          "Competitive",
	ModePvPQuickplay:            "Quickplay",
	ModeClashQuickplay:          "Clash Quickplay",
	ModeClashCompetitive:        "Clash Competitive",
	ModeControlQuickplay:        "Control Quickplay",
	ModeControlCompetitive:      "Control Competitive",
	ModeElimination:             "Elimination",
	ModeMomentum:                "Momentum",
	ModeTrialsOfOsiris:          "Trials of Osiris",
	ModeRift:                    "Rift",
	ModeZoneControl:             "Zone Control",
	ModeIronBannerRift:          "Iron Banner Rift",
	ModeIronBannerZoneControl:   "Iron Banner Zone Control",
}

func (mode Mode) String() string {
	if name, ok := modeNames[mode]; ok {
		return name
	}

	return "Unknown"
}

// ModeFromID maps an upstream mode id to a Mode. Values outside the mapped
// set come back as ModeUnknown rather than an error, matching how the rest of
// the enums treat unrecognized upstream data.
func ModeFromID(id int) Mode {
	if _, ok := modeNames[Mode(id)]; ok {
		return Mode(id)
	}

	return ModeUnknown
}

// IsPrivate reports whether the mode only occurs inside private matches.
func (mode Mode) IsPrivate() bool {
	switch mode {
	case ModePrivateMatchesAll,
		ModePrivateMatchesClash,
		ModePrivateMatchesControl,
		ModePrivateMatchesSupremacy,
		ModePrivateMatchesCountdown,
		ModePrivateMatchesSurvival,
		ModePrivateMatchesMayhem,
		ModePrivateMatchesRumble:
		return true
	}

	return false
}

// HasTeams reports whether team results are expected for the mode. Rumble and
// other free-for-all modes have no team rows; the query engine synthesizes a
// single virtual team for them.
func (mode Mode) HasTeams() bool {
	switch mode {
	case ModeRumble, ModePrivateMatchesRumble:
		return false
	}

	return true
}
