package models

// CharacterClass is the in-game class of a character. Values are the Bungie
// API DestinyClass enum values.
type CharacterClass int

const (
	ClassTitan   CharacterClass = 0
	ClassHunter  CharacterClass = 1
	ClassWarlock CharacterClass = 2
	ClassUnknown CharacterClass = 3
)

func (class CharacterClass) String() string {
	switch class {
	case ClassTitan:
		return "Titan"
	case ClassHunter:
		return "Hunter"
	case ClassWarlock:
		return "Warlock"
	}

	return "Unknown"
}

// ClassFromID maps an upstream class type to a CharacterClass.
func ClassFromID(id int) CharacterClass {
	switch CharacterClass(id) {
	case ClassTitan, ClassHunter, ClassWarlock:
		return CharacterClass(id)
	}

	return ClassUnknown
}

// CharacterSelection picks which of a member's characters a query applies to.
type CharacterSelection int

const (
	SelectionTitan CharacterSelection = iota
	SelectionHunter
	SelectionWarlock
	SelectionAll
	SelectionLastActive
)

// allClassesSQLSentinel is the class id the query predicate uses to mean
// "match every class": (character.class = ? OR 4 = ?).
const allClassesSQLSentinel = 4

// ClassID returns the class id to bind into the character filter predicate.
// SelectionLastActive has no direct id; callers resolve it to a concrete
// class first.
func (selection CharacterSelection) ClassID() int {
	switch selection {
	case SelectionTitan:
		return int(ClassTitan)
	case SelectionHunter:
		return int(ClassHunter)
	case SelectionWarlock:
		return int(ClassWarlock)
	}

	return allClassesSQLSentinel
}

func (selection CharacterSelection) String() string {
	switch selection {
	case SelectionTitan:
		return "Titan"
	case SelectionHunter:
		return "Hunter"
	case SelectionWarlock:
		return "Warlock"
	case SelectionLastActive:
		return "Last Active"
	}

	return "All"
}

// SelectionForClass maps a concrete class to its selection, used after
// last-active resolution.
func SelectionForClass(class CharacterClass) CharacterSelection {
	switch class {
	case ClassTitan:
		return SelectionTitan
	case ClassHunter:
		return SelectionHunter
	case ClassWarlock:
		return SelectionWarlock
	}

	return SelectionAll
}
