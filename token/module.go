// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/modules"
	"github.com/omnibazaar/precompile/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)
var _ contract.StatefulPrecompiledContract = (*LedgerContract)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "tokenLedgerConfig"

// Module is the precompile module registered at the token ledger address.
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     LedgerPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

// Config activates the token ledger at a network upgrade. The admin is the
// only account allowed to mint.
type Config struct {
	Upgrade precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin   common.Address           `json:"admin,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) && c.Admin == other.Admin
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	return nil
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	if config.Admin != (common.Address{}) {
		SetAdmin(state, config.Admin)
	}
	return nil
}
