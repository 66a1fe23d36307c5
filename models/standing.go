package models

// Standing is the result of a match from one team's perspective.
type Standing int

const (
	StandingVictory Standing = 0
	StandingDefeat  Standing = 1
	StandingUnknown Standing = 2
)

func (standing Standing) String() string {
	switch standing {
	case StandingVictory:
		return "Victory"
	case StandingDefeat:
		return "Defeat"
	}

	return "Unknown"
}

// StandingFromValue maps the upstream standing stat value. Anything other
// than 0 or 1 is treated as unknown.
func StandingFromValue(value int) Standing {
	switch Standing(value) {
	case StandingVictory, StandingDefeat:
		return Standing(value)
	}

	return StandingUnknown
}

// CompletionReason explains why an activity ended for a player.
type CompletionReason int

const (
	CompletionReasonObjectiveCompleted CompletionReason = 0
	CompletionReasonTimerFinished      CompletionReason = 1
	CompletionReasonFailed             CompletionReason = 2
	CompletionReasonNoLongerAvailable  CompletionReason = 3
	CompletionReasonMercy              CompletionReason = 4
	CompletionReasonUnknown            CompletionReason = 255
)

func (reason CompletionReason) String() string {
	switch reason {
	case CompletionReasonObjectiveCompleted:
		return "Objective Completed"
	case CompletionReasonTimerFinished:
		return "Timer Finished"
	case CompletionReasonFailed:
		return "Failed"
	case CompletionReasonNoLongerAvailable:
		return "No Longer Available"
	case CompletionReasonMercy:
		return "Mercy"
	}

	return "Unknown"
}

// CompletionReasonFromValue maps the upstream completionReason stat value.
func CompletionReasonFromValue(value int) CompletionReason {
	switch CompletionReason(value) {
	case CompletionReasonObjectiveCompleted,
		CompletionReasonTimerFinished,
		CompletionReasonFailed,
		CompletionReasonNoLongerAvailable,
		CompletionReasonMercy:
		return CompletionReason(value)
	}

	return CompletionReasonUnknown
}
