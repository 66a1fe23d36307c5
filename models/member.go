package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PlayerName holds the display names attached to a Bungie account. The code
// is kept as a 4 digit zero padded string since that is how it is compared
// and stored everywhere.
type PlayerName struct {
	DisplayName           string `json:"display_name"`
	BungieDisplayName     string `json:"bungie_display_name"`
	BungieDisplayNameCode string `json:"bungie_display_name_code"`
}

// FormatNameCode normalizes a numeric bungie name code to the canonical
// 4 digit zero padded form.
func FormatNameCode(code int) string {
	return fmt.Sprintf("%04d", code)
}

// ParseBungieName splits a full NAME#CODE bungie name. The code must parse to
// an integer in [1, 9999].
func ParseBungieName(name string) (*PlayerName, error) {
	index := strings.LastIndex(name, "#")
	if index <= 0 || index == len(name)-1 {
		return nil, errors.Errorf("invalid bungie name, expected NAME#CODE: %s", name)
	}

	code, err := strconv.Atoi(name[index+1:])
	if err != nil || code < 1 || code > 9999 {
		return nil, errors.Errorf("invalid bungie name code: %s", name[index+1:])
	}

	return &PlayerName{
		DisplayName:           name[:index],
		BungieDisplayName:     name[:index],
		BungieDisplayNameCode: FormatNameCode(code),
	}, nil
}

// HasValidBungieName reports whether all three name fields are populated.
func (name PlayerName) HasValidBungieName() bool {
	return name.DisplayName != "" && name.BungieDisplayName != "" &&
		name.BungieDisplayNameCode != ""
}

// FullName formats the canonical NAME#CODE form, or falls back to the plain
// display name when the global name is missing.
func (name PlayerName) FullName() string {
	if name.BungieDisplayName == "" || name.BungieDisplayNameCode == "" {
		return name.DisplayName
	}

	return name.BungieDisplayName + "#" + name.BungieDisplayNameCode
}

// Member is a Bungie account. The ID is the primary identity across
// platforms once cross-save is taken into account.
type Member struct {
	ID       int64      `json:"id"`
	Platform Platform   `json:"platform"`
	Name     PlayerName `json:"name"`
}

// Character is one of a member's playable characters.
type Character struct {
	ID       int64          `json:"id"`
	MemberID int64          `json:"member_id"`
	Class    CharacterClass `json:"class"`
}
