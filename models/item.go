package models

// ItemType is the broad category of an inventory item as defined by the
// Bungie API DestinyItemType enum. Only the weapon-related values matter to
// this pipeline, the rest collapse to unknown.
type ItemType int

const (
	ItemTypeNone       ItemType = 0
	ItemTypeCurrency   ItemType = 1
	ItemTypeArmor      ItemType = 2
	ItemTypeWeapon     ItemType = 3
	ItemTypeConsumable ItemType = 9
	ItemTypeEmblem     ItemType = 14
	ItemTypeVehicle    ItemType = 22
	ItemTypeGhost      ItemType = 24
	ItemTypeUnknown    ItemType = -1
)

func (itemType ItemType) String() string {
	switch itemType {
	case ItemTypeNone:
		return "None"
	case ItemTypeWeapon:
		return "Weapon"
	case ItemTypeArmor:
		return "Armor"
	case ItemTypeGhost:
		return "Ghost"
	case ItemTypeEmblem:
		return "Emblem"
	}

	return "Unknown"
}

// ItemTypeFromID maps an upstream item type id.
func ItemTypeFromID(id int) ItemType {
	switch ItemType(id) {
	case ItemTypeNone, ItemTypeCurrency, ItemTypeArmor, ItemTypeWeapon,
		ItemTypeGhost, ItemTypeVehicle, ItemTypeEmblem, ItemTypeConsumable:
		return ItemType(id)
	}

	return ItemTypeUnknown
}

// ItemSubType narrows an item to its archetype, e.g. which weapon frame a
// weapon is. Values are the Bungie API DestinyItemSubType enum.
type ItemSubType int

const (
	ItemSubTypeNone            ItemSubType = 0
	ItemSubTypeAutoRifle       ItemSubType = 6
	ItemSubTypeShotgun         ItemSubType = 7
	ItemSubTypeMachineGun      ItemSubType = 8
	ItemSubTypeHandCannon      ItemSubType = 9
	ItemSubTypeRocketLauncher  ItemSubType = 10
	ItemSubTypeFusionRifle     ItemSubType = 11
	ItemSubTypeSniperRifle     ItemSubType = 12
	ItemSubTypePulseRifle      ItemSubType = 13
	ItemSubTypeScoutRifle      ItemSubType = 14
	ItemSubTypeSidearm         ItemSubType = 17
	ItemSubTypeSword           ItemSubType = 18
	ItemSubTypeFusionRifleLine ItemSubType = 25
	ItemSubTypeGrenadeLauncher ItemSubType = 26
	ItemSubTypeSubmachineGun   ItemSubType = 27
	ItemSubTypeTraceRifle      ItemSubType = 28
	ItemSubTypeBow             ItemSubType = 31
	ItemSubTypeGlaive          ItemSubType = 33
	ItemSubTypeUnknown         ItemSubType = -1
)

var itemSubTypeNames = map[ItemSubType]string{
	ItemSubTypeNone:            "None",
	ItemSubTypeAutoRifle:       "Auto Rifle",
	ItemSubTypeShotgun:         "Shotgun",
	ItemSubTypeMachineGun:      "Machine Gun",
	ItemSubTypeHandCannon:      "Hand Cannon",
	ItemSubTypeRocketLauncher:  "Rocket Launcher",
	ItemSubTypeFusionRifle:     "Fusion Rifle",
	ItemSubTypeSniperRifle:     "Sniper Rifle",
	ItemSubTypePulseRifle:      "Pulse Rifle",
	ItemSubTypeScoutRifle:      "Scout Rifle",
	ItemSubTypeSidearm:         "Sidearm",
	ItemSubTypeSword:           "Sword",
	ItemSubTypeFusionRifleLine: "Linear Fusion Rifle",
	ItemSubTypeGrenadeLauncher: "Grenade Launcher",
	ItemSubTypeSubmachineGun:   "Submachine Gun",
	ItemSubTypeTraceRifle:      "Trace Rifle",
	ItemSubTypeBow:             "Bow",
	ItemSubTypeGlaive:          "Glaive",
}

func (subType ItemSubType) String() string {
	if name, ok := itemSubTypeNames[subType]; ok {
		return name
	}

	return "Unknown"
}

// ItemSubTypeFromID maps an upstream item sub type id.
func ItemSubTypeFromID(id int) ItemSubType {
	if _, ok := itemSubTypeNames[ItemSubType(id)]; ok {
		return ItemSubType(id)
	}

	return ItemSubTypeUnknown
}
