package main

import (
	"github.com/kpango/glg"
)

// ConfigureLogging will setup the glg logging package with the coloring and
// levels desired for the entire application. Debug and info output stay off
// unless verbose mode is requested.
func ConfigureLogging(verbose bool) {
	glg.Get().
		SetMode(glg.STD).
		EnableColor().
		SetLevelMode(glg.LOG, glg.NONE)

	if !verbose {
		glg.Get().
			SetLevelMode(glg.DEBG, glg.NONE).
			SetLevelMode(glg.INFO, glg.NONE)
	}
}
