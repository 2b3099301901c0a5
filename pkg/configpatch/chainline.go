// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configpatch

import (
	"fmt"
	"os"
	"regexp"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/utils"
	toml "github.com/pelletier/go-toml/v2"
)

// chainLinePattern anchors one whole line beginning with the chain keyword.
// Multiline values are not supported on this key.
var chainLinePattern = regexp.MustCompile(`(?m)^\s*chain\s*=.*$`)

// FormatChainLine renders the canonical chain parameter line.
func FormatChainLine(params *ChainParameters) string {
	return fmt.Sprintf(
		"chain = { genesis_time_secs = %d, slot_time_secs = %d, genesis_fork_version = %q, chain_id = %d }",
		params.GenesisTimeSecs, params.SlotTimeSecs, params.GenesisForkVersion, params.ChainID,
	)
}

// chainDocument mirrors the chain line for parse-back validation.
type chainDocument struct {
	Chain struct {
		GenesisTimeSecs    int64  `toml:"genesis_time_secs"`
		SlotTimeSecs       int64  `toml:"slot_time_secs"`
		GenesisForkVersion string `toml:"genesis_fork_version"`
		ChainID            int64  `toml:"chain_id"`
	} `toml:"chain"`
}

// PatchChainLine replaces the single chain assignment of the document at
// path with the canonical line for params, preserving the previous content
// at a .bak sibling. The written line is returned for reporting.
func PatchChainLine(path string, params *ChainParameters) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Patching operator-supplied config
	if err != nil {
		return "", fmt.Errorf("%w: config document: %v", constants.ErrPreconditionMissing, err)
	}

	matches := chainLinePattern.FindAll(data, -1)
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("%w: no %s assignment in %s", constants.ErrPatchTargetAbsent, constants.ChainLineKey, path)
	case len(matches) > 1:
		return "", fmt.Errorf("%w: %d %s assignments in %s", constants.ErrPatchTargetAmbiguous, len(matches), constants.ChainLineKey, path)
	}

	line := FormatChainLine(params)
	if err := validateChainLine(line, params); err != nil {
		return "", err
	}

	patched := chainLinePattern.ReplaceAllLiteral(data, []byte(line))
	if err := validateTOML(patched, path); err != nil {
		return "", err
	}
	if err := utils.WriteFileWithBackup(path, patched); err != nil {
		return "", err
	}
	return line, nil
}

// validateChainLine round-trips the rendered line through the TOML parser
// and compares the four values bit-for-bit.
func validateChainLine(line string, params *ChainParameters) error {
	var doc chainDocument
	if err := toml.Unmarshal([]byte(line), &doc); err != nil {
		return fmt.Errorf("chain line does not parse: %w", err)
	}
	got := doc.Chain
	if got.GenesisTimeSecs != params.GenesisTimeSecs ||
		got.SlotTimeSecs != params.SlotTimeSecs ||
		got.GenesisForkVersion != params.GenesisForkVersion ||
		got.ChainID != params.ChainID {
		return fmt.Errorf("chain line does not round-trip: %s", line)
	}
	return nil
}

// validateTOML rejects a patched document that no longer parses.
func validateTOML(data []byte, path string) error {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("patched %s does not parse as TOML: %w", path, err)
	}
	return nil
}
