package models

// MedalTier ranks how difficult a medal is to earn. The manifest encodes the
// tier as an identifier string on the historical stats definition.
type MedalTier int

const (
	MedalTierNone MedalTier = iota
	MedalTier1
	MedalTier2
	MedalTier3
	MedalTier4
	MedalTier5
	MedalTier6
	MedalTier7
	MedalTierUnknown
)

var medalTierIdentifiers = map[string]MedalTier{
	"medaltier_none": MedalTierNone,
	"medaltier1":     MedalTier1,
	"medaltier2":     MedalTier2,
	"medaltier3":     MedalTier3,
	"medaltier4":     MedalTier4,
	"medaltier5":     MedalTier5,
	"medaltier6":     MedalTier6,
	"medaltier7":     MedalTier7,
}

func (tier MedalTier) String() string {
	switch tier {
	case MedalTierNone:
		return "None"
	case MedalTier1:
		return "Tier 1"
	case MedalTier2:
		return "Tier 2"
	case MedalTier3:
		return "Tier 3"
	case MedalTier4:
		return "Tier 4"
	case MedalTier5:
		return "Tier 5"
	case MedalTier6:
		return "Tier 6"
	case MedalTier7:
		return "Tier 7"
	}

	return "Unknown"
}

// MedalTierFromIdentifier maps a manifest medal tier identifier string.
func MedalTierFromIdentifier(identifier string) MedalTier {
	if tier, ok := medalTierIdentifiers[identifier]; ok {
		return tier
	}

	return MedalTierUnknown
}
