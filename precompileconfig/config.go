// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration interface precompile
// modules implement so the chain can activate, upgrade, and disable them.
package precompileconfig

// Config is implemented by each precompile's config struct.
type Config interface {
	// Key returns the json key used for this precompile in chain config.
	Key() string
	// Timestamp returns the activation timestamp, nil if never active.
	Timestamp() *uint64
	// IsDisabled returns true if this upgrade deactivates the precompile.
	IsDisabled() bool
	// Equal reports whether [other] carries the same configuration.
	Equal(other Config) bool
	// Verify checks the config is internally consistent.
	Verify(chainConfig ChainConfig) error
}

// ChainConfig is the subset of chain configuration precompiles may consult.
type ChainConfig interface {
	// IsDurango reports whether the upgrade schedule has reached the
	// network version that enables the module suite at [timestamp].
	IsDurango(timestamp uint64) bool
}

// Upgrade is embedded in every precompile config to carry activation info.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp"`
	Disable        bool    `json:"disable,omitempty"`
}

func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

func (u *Upgrade) IsDisabled() bool {
	return u.Disable
}

// Equal reports whether [other] has the same activation semantics.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	if (u.BlockTimestamp == nil) != (other.BlockTimestamp == nil) {
		return false
	}
	return u.BlockTimestamp == nil || *u.BlockTimestamp == *other.BlockTimestamp
}
