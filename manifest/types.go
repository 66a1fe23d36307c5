package manifest

import (
	"github.com/mikechambers/dcli-sub000/models"
)

// DisplayProperties is the shared name/description/icon block carried by
// most definition types.
type DisplayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	HasIcon     bool   `json:"hasIcon"`
}

// ActivityDefinition names a playlist or map.
type ActivityDefinition struct {
	DisplayProperties DisplayProperties `json:"displayProperties"`
}

// InventoryItemDefinition describes a weapon or other inventory item.
type InventoryItemDefinition struct {
	DisplayProperties DisplayProperties  `json:"displayProperties"`
	ItemType          models.ItemType    `json:"itemType"`
	ItemSubType       models.ItemSubType `json:"itemSubType"`
}

// HistoricalStatsDefinition describes a tracked stat. Medals are stats, so
// this is where medal names, descriptions, and tiers come from.
type HistoricalStatsDefinition struct {
	StatID              string `json:"statId"`
	StatName            string `json:"statName"`
	StatDescription     string `json:"statDescription"`
	IconImage           string `json:"iconImage"`
	MedalTierIdentifier string `json:"medalTierHash"`
}

// Tier maps the definition's tier identifier to the medal tier enum.
func (definition *HistoricalStatsDefinition) Tier() models.MedalTier {
	return models.MedalTierFromIdentifier(definition.MedalTierIdentifier)
}
