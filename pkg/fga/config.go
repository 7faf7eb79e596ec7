// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"os"
	"strconv"
	"time"
)

// Config carries the OpenFGA connection settings.
type Config struct {
	// APIURL is the base URL of the OpenFGA server.
	APIURL string
	// StoreName is the store to find or create during bootstrap.
	StoreName string
	// StoreID pins an existing store id, skipping the lookup by name.
	StoreID string
	// ModelID pins an authorization model id, skipping the latest-model
	// lookup.
	ModelID string
	// Enabled turns permission enforcement on. When false every check
	// allows.
	Enabled bool
	// ListOnlyPermitted makes list responses contain only the objects the
	// caller can read, instead of everything in the org.
	ListOnlyPermitted bool
	// Timeout bounds each HTTP call to the backend.
	Timeout time.Duration
}

// ConfigFromEnv reads the configuration from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		APIURL:            os.Getenv("FGA_API_URL"),
		StoreName:         os.Getenv("FGA_STORE_NAME"),
		StoreID:           os.Getenv("FGA_STORE_ID"),
		ModelID:           os.Getenv("FGA_MODEL_ID"),
		Enabled:           boolEnv("FGA_ENABLED"),
		ListOnlyPermitted: boolEnv("FGA_LIST_ONLY_PERMITTED"),
		Timeout:           10 * time.Second,
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:8080"
	}
	if cfg.StoreName == "" {
		cfg.StoreName = "visdata"
	}
	if v := os.Getenv("FGA_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

func boolEnv(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}
