package models

// Derived Crucible stat ratios. Deaths are clamped to a minimum of one so
// flawless games don't divide by zero. All of these are floating point, the
// integer inputs are converted before dividing.

// Efficiency is (kills + assists) / max(deaths, 1).
func Efficiency(kills, deaths, assists int) float64 {
	return float64(kills+assists) / float64(clampDeaths(deaths))
}

// KillsDeathsRatio is kills / max(deaths, 1).
func KillsDeathsRatio(kills, deaths int) float64 {
	return float64(kills) / float64(clampDeaths(deaths))
}

// KillsDeathsAssists is (kills + assists/2) / max(deaths, 1).
func KillsDeathsAssists(kills, deaths, assists int) float64 {
	return (float64(kills) + float64(assists)*0.5) / float64(clampDeaths(deaths))
}

func clampDeaths(deaths int) int {
	if deaths < 1 {
		return 1
	}

	return deaths
}
