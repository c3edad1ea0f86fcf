// Package config provides configuration structures and utilities for
// siteaudit. It defines the audit thresholds, the curated policy lists
// (banned terms, banned TLDs, premium ad networks, keyword registries),
// and the YAML file loader that lets deployments override them.
package config
