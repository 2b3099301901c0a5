// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
	"go.uber.org/zap"
)

// Summary reports what one consolidation run produced.
type Summary struct {
	Ranges        []KeyRange
	KeysCopied    int
	SecretsCopied int
	// SampleKeys lists the first few consolidated key identifiers so the
	// operator can eyeball the result.
	SampleKeys []string
	// ShortRanges names artifacts whose on-disk key count differs from the
	// validator count their name promises.
	ShortRanges []string
}

// Consolidator merges per-artifact key material into the flat output trees.
type Consolidator struct {
	orchestrator enclave.Orchestrator
	log          *zap.SugaredLogger
}

func NewConsolidator(orchestrator enclave.Orchestrator, log *zap.SugaredLogger) *Consolidator {
	return &Consolidator{orchestrator: orchestrator, log: log}
}

// Consolidate enumerates the enclave's artifacts, downloads every one
// matching the naming grammar into stagingDir, and copies keys/ and secrets/
// contents into keysDir and secretsDir. Both output directories are wiped
// first; no state survives from earlier runs.
func (c *Consolidator) Consolidate(ctx context.Context, enclaveName, stagingDir, keysDir, secretsDir string) (*Summary, error) {
	info, err := c.orchestrator.InspectEnclave(ctx, enclaveName)
	if err != nil {
		return nil, fmt.Errorf("enumerating artifacts in %s: %w", enclaveName, err)
	}

	ranges := MatchArtifacts(info.ArtifactNames())
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: enclave %s", constants.ErrNoValidatorArtifacts, enclaveName)
	}

	if err := utils.ResetDir(keysDir); err != nil {
		return nil, fmt.Errorf("resetting %s: %w", keysDir, err)
	}
	if err := utils.ResetDir(secretsDir); err != nil {
		return nil, fmt.Errorf("resetting %s: %w", secretsDir, err)
	}

	summary := &Summary{Ranges: ranges}
	for _, kr := range ranges {
		dest := filepath.Join(stagingDir, kr.ArtifactName)
		err := utils.WithTransferRetry(ctx, func(ctx context.Context) error {
			return c.orchestrator.DownloadArtifact(ctx, enclaveName, kr.ArtifactName, dest)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: artifact %s: %v", constants.ErrTransferFailed, kr.ArtifactName, err)
		}

		keys, err := copyFlat(filepath.Join(dest, constants.KeysDirName), keysDir)
		if err != nil {
			return nil, fmt.Errorf("consolidating keys of %s: %w", kr.ArtifactName, err)
		}
		secrets, err := copyFlat(filepath.Join(dest, constants.SecretsDirName), secretsDir)
		if err != nil {
			return nil, fmt.Errorf("consolidating secrets of %s: %w", kr.ArtifactName, err)
		}

		if keys != kr.Validators() {
			summary.ShortRanges = append(summary.ShortRanges, kr.ArtifactName)
		}
		summary.KeysCopied += keys
		summary.SecretsCopied += secrets
		c.log.Debugf("artifact %s contributed %d keys, %d secrets", kr.ArtifactName, keys, secrets)
	}

	names, err := utils.ListFileNames(keysDir)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	summary.SampleKeys = utils.FirstN(names, constants.KeyListingSample)

	c.report(summary)
	return summary, nil
}

// copyFlat copies the regular files of src into dest. A missing src is not
// an error; that artifact simply contributes nothing.
func copyFlat(src, dest string) (int, error) {
	if !utils.DirExists(src) {
		return 0, nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}
	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := utils.CopyFile(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func (c *Consolidator) report(summary *Summary) {
	ux.Logger.GreenCheckmarkToUser(
		"Consolidated %d keys and %d secrets from %d artifacts",
		summary.KeysCopied, summary.SecretsCopied, len(summary.Ranges),
	)
	for _, name := range summary.SampleKeys {
		ux.Logger.PrintToUser("  key: %s", name)
	}
	if extra := summary.KeysCopied - len(summary.SampleKeys); extra > 0 {
		ux.Logger.PrintToUser("  ... and %s more", ux.ConvertToStringWithThousandSeparator(uint64(extra)))
	}
	for _, name := range summary.ShortRanges {
		ux.Logger.Warn("artifact %s delivered fewer keys than its range declares", name)
	}
}
