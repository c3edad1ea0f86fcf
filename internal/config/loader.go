package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".siteaudit"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .siteaudit configuration file.
// Every section is optional; omitted sections keep the built-in
// defaults. List sections REPLACE the corresponding default list rather
// than appending, so a deployment can also shrink a list.
type File struct {
	// Policy overrides the built-in curated lists.
	Policy *Policy `yaml:"policy,omitempty"`

	// Thresholds overrides the numeric business-policy values.
	Thresholds *Thresholds `yaml:"thresholds,omitempty"`

	// Classifier is the base URL of the classification collaborator.
	Classifier string `yaml:"classifier,omitempty"`

	// Search is the base URL of the search collaborator.
	Search string `yaml:"search,omitempty"`
}

// Thresholds holds the externally configurable business-policy numbers.
type Thresholds struct {
	// MaxRecentDays overrides DefaultFreshnessMaxRecentDays.
	MaxRecentDays *int `yaml:"maxRecentDays,omitempty"`

	// MinHistoryDays overrides DefaultFreshnessMinHistoryDays.
	MinHistoryDays *int `yaml:"minHistoryDays,omitempty"`

	// MinPremiumNetworks overrides DefaultMinPremiumNetworks.
	MinPremiumNetworks *int `yaml:"minPremiumNetworks,omitempty"`

	// SimilarityFailThreshold overrides DefaultSimilarityFailThreshold.
	SimilarityFailThreshold *float64 `yaml:"similarityFailThreshold,omitempty"`

	// CheckDeadlineSeconds overrides DefaultCheckDeadline.
	CheckDeadlineSeconds *int `yaml:"checkDeadlineSeconds,omitempty"`
}

// LoadConfigFile loads overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers
// decide how to handle that based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply merges the file's overrides into the config. Nil sections and
// nil threshold fields leave the existing values untouched.
func (cf *File) Apply(cfg *Config) {
	if cf.Policy != nil {
		cfg.Policy = mergePolicy(cfg.Policy, cf.Policy)
	}
	if cf.Classifier != "" {
		cfg.ClassifierEndpoint = cf.Classifier
	}
	if cf.Search != "" {
		cfg.SearchEndpoint = cf.Search
	}
	if t := cf.Thresholds; t != nil {
		if t.MaxRecentDays != nil {
			cfg.FreshnessMaxRecentDays = *t.MaxRecentDays
		}
		if t.MinHistoryDays != nil {
			cfg.FreshnessMinHistoryDays = *t.MinHistoryDays
		}
		if t.MinPremiumNetworks != nil {
			cfg.MinPremiumNetworks = *t.MinPremiumNetworks
		}
		if t.SimilarityFailThreshold != nil {
			cfg.SimilarityFailThreshold = *t.SimilarityFailThreshold
		}
		if t.CheckDeadlineSeconds != nil {
			cfg.CheckDeadline = time.Duration(*t.CheckDeadlineSeconds) * time.Second
		}
	}
}

// mergePolicy overlays non-empty lists from override onto base.
func mergePolicy(base, override *Policy) *Policy {
	merged := *base
	if len(override.BannedTLDs) > 0 {
		merged.BannedTLDs = override.BannedTLDs
	}
	if len(override.BannedTerms) > 0 {
		merged.BannedTerms = override.BannedTerms
	}
	if len(override.HatePhrases) > 0 {
		merged.HatePhrases = override.HatePhrases
	}
	if len(override.PremiumNetworks) > 0 {
		merged.PremiumNetworks = override.PremiumNetworks
	}
	if len(override.TrackingDomains) > 0 {
		merged.TrackingDomains = override.TrackingDomains
	}
	if len(override.TrackingKeywords) > 0 {
		merged.TrackingKeywords = override.TrackingKeywords
	}
	if len(override.ContentKeywords) > 0 {
		merged.ContentKeywords = override.ContentKeywords
	}
	if len(override.AdKeywords) > 0 {
		merged.AdKeywords = override.AdKeywords
	}
	if len(override.PrimarySitemaps) > 0 {
		merged.PrimarySitemaps = override.PrimarySitemaps
	}
	if len(override.FallbackSitemaps) > 0 {
		merged.FallbackSitemaps = override.FallbackSitemaps
	}
	if len(override.AuxiliaryPaths) > 0 {
		merged.AuxiliaryPaths = override.AuxiliaryPaths
	}
	return &merged
}

// FindConfigFile searches for the configuration file in this order:
//  1. If configPath is specified, use it directly
//  2. Look for .siteaudit in the current directory
//  3. Look for .siteaudit in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
