package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// currentCacheVersion defines the version of the cached load profile schema
const currentCacheVersion = 1

// loadProfileKey creates a key from the absolute path, size and modification time of a file,
// so that an edited file is analyzed again.
func loadProfileKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano())
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}

// checkCacheHit attempts to retrieve and validate a cached load profile
func checkCacheHit(store contract.CacheStore, key string) *schema.LoadProfile {
	if store == nil {
		return nil
	}
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > contract.CacheMaxAge {
		return nil
	}
	var profile schema.LoadProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}
	return &profile
}

// storeProfile saves what was inferred about a file. Write errors are logged and ignored.
func storeProfile(store contract.CacheStore, key string, s *schema.Series) {
	if store == nil || key == "" {
		return
	}
	profile := schema.LoadProfile{
		Layout:          s.Layout,
		DisplayFormat:   s.DisplayFormat,
		HasSeconds:      s.HasSeconds,
		Granularity:     s.Granularity,
		Frequency:       s.Frequency,
		MonthDaySwapped: s.MonthDaySwapped,
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Cannot cache load profile", err)
	}
}
