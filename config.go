package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kpango/glg"
)

// EnvConfig specifies all of the configuration that needs to be setup on
// different hosts or for different environments. Everything comes from the
// environment, optionally seeded from a .env file in the working directory.
type EnvConfig struct {
	BungieAPIKey   string `json:"bungie_api_key"`
	StorePath      string `json:"store_path"`
	FixCorruptData bool   `json:"fix_corrupt_data"`
	LogLevel       string `json:"log_level"`
}

// NewEnvConfig will create an EnvConfig instance populated from the
// environment.
func NewEnvConfig() *EnvConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		glg.Debugf("No .env file loaded: %s", err.Error())
	}

	config := &EnvConfig{
		BungieAPIKey: os.Getenv("DCLI_API_KEY"),
		StorePath:    os.Getenv("DCLI_DB_PATH"),
		LogLevel:     os.Getenv("DCLI_LOG_LEVEL"),
	}
	config.FixCorruptData = strings.EqualFold(os.Getenv("FIX_CORRUPT_DATA"), "true")

	if config.StorePath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			config.StorePath = home + "/.dcli"
		} else {
			config.StorePath = "."
		}
	}

	return config
}
