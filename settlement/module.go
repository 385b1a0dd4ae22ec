// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/modules"
	"github.com/omnibazaar/precompile/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "dexSettlementConfig"

// SettlementPrecompile is the singleton instance.
var SettlementPrecompile = NewSettlementContract()

// Module is the precompile module registered at the settlement address.
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     SettlementPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

// Config activates the settlement precompile at a network upgrade and seeds
// its genesis parameters.
type Config struct {
	Upgrade             precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin               common.Address           `json:"admin,omitempty"`
	Governance          common.Address           `json:"governance,omitempty"`
	StakingPool         common.Address           `json:"stakingPool,omitempty"`
	ChainID             uint64                   `json:"chainId,omitempty"`
	MaxTradeSize        *big.Int                 `json:"maxTradeSize,omitempty"`
	DailyVolumeLimit    *big.Int                 `json:"dailyVolumeLimit,omitempty"`
	MaxSlippageBps      uint64                   `json:"maxSlippageBps,omitempty"`
	RequireCommitReveal bool                     `json:"requireCommitReveal,omitempty"`
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
	return c.Upgrade.Equal(&other.Upgrade) &&
		c.Admin == other.Admin &&
		c.Governance == other.Governance &&
		c.StakingPool == other.StakingPool &&
		c.ChainID == other.ChainID &&
		bigEqual(c.MaxTradeSize, other.MaxTradeSize) &&
		bigEqual(c.DailyVolumeLimit, other.DailyVolumeLimit) &&
		c.MaxSlippageBps == other.MaxSlippageBps &&
		c.RequireCommitReveal == other.RequireCommitReveal
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.MaxSlippageBps > BasisPoints {
		return fmt.Errorf("maxSlippageBps %d exceeds %d", c.MaxSlippageBps, BasisPoints)
	}
	if c.Governance == (common.Address{}) || c.StakingPool == (common.Address{}) {
		return fmt.Errorf("governance and stakingPool must be set")
	}
	return nil
}

func bigEqual(a, b *big.Int) bool {
	if a == nil {
		return b == nil || b.Sign() == 0
	}
	if b == nil {
		return a.Sign() == 0
	}
	return a.Cmp(b) == 0
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
		setAdmin(state, config.Admin)
	}
	setGovernance(state, config.Governance)
	setStakingPool(state, config.StakingPool)
	setChainID(state, config.ChainID)
	setRequireCommitReveal(state, config.RequireCommitReveal)

	limits := TradingLimits{
		MaxTradeSize:     config.MaxTradeSize,
		DailyVolumeLimit: config.DailyVolumeLimit,
		MaxSlippageBps:   config.MaxSlippageBps,
	}
	if limits.MaxTradeSize == nil {
		limits.MaxTradeSize = new(big.Int)
	}
	if limits.DailyVolumeLimit == nil {
		limits.DailyVolumeLimit = new(big.Int)
	}
	setLimits(state, limits)

	return nil
}
