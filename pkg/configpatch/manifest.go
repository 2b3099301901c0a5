// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package configpatch rewrites the deployment config documents in place.
// Two independent writers share the package: the endpoint extractor replaces
// port fields with live cluster assignments, and the chain patcher replaces
// the single chain parameter line. Each writer touches only the fields it
// owns and leaves every other byte of the document alone.
package configpatch

import (
	"fmt"
	"os"

	"github.com/eth-fabric/fabric/pkg/constants"
	"gopkg.in/yaml.v3"
)

// ChainParameters are the immutable genesis parameters of the target chain.
type ChainParameters struct {
	GenesisTimeSecs    int64
	SlotTimeSecs       int64
	GenesisForkVersion string
	ChainID            int64
}

// genesisManifest is the subset of the cluster's genesis config we consume.
type genesisManifest struct {
	MinGenesisTime     int64  `yaml:"MIN_GENESIS_TIME"`
	GenesisDelay       int64  `yaml:"GENESIS_DELAY"`
	SecondsPerSlot     int64  `yaml:"SECONDS_PER_SLOT"`
	GenesisForkVersion string `yaml:"GENESIS_FORK_VERSION"`
	DepositChainID     int64  `yaml:"DEPOSIT_CHAIN_ID"`
}

// ReadChainParameters extracts the chain parameters from the genesis
// manifest at path. Genesis time is MIN_GENESIS_TIME plus GENESIS_DELAY,
// the timestamp the cluster actually computes for slot zero.
func ReadChainParameters(path string) (*ChainParameters, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading pipeline-produced manifest
	if err != nil {
		return nil, fmt.Errorf("%w: genesis manifest: %v", constants.ErrPreconditionMissing, err)
	}
	var manifest genesisManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing genesis manifest %s: %w", path, err)
	}
	if manifest.MinGenesisTime == 0 || manifest.SecondsPerSlot == 0 ||
		manifest.GenesisForkVersion == "" || manifest.DepositChainID == 0 {
		return nil, fmt.Errorf("%w: genesis manifest %s is missing required keys", constants.ErrPreconditionMissing, path)
	}
	return &ChainParameters{
		GenesisTimeSecs:    manifest.MinGenesisTime + manifest.GenesisDelay,
		SlotTimeSecs:       manifest.SecondsPerSlot,
		GenesisForkVersion: manifest.GenesisForkVersion,
		ChainID:            manifest.DepositChainID,
	}, nil
}
