// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package devnetcmd

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/pipeline"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated devnet state",
		Long: `The devnet clean command removes everything a bootstrap wrote to disk:
consolidated keys and secrets, downloaded network configs, downstream
databases, the generated activation environment, and any staging
directories left behind by an interrupted run.

The enclave itself is untouched; use 'fabric devnet down' for that.`,

		RunE:         runClean,
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
	}

	addOutputRootFlag(cmd.Flags())
	addComposeDirFlag(cmd.Flags())

	return cmd
}

func runClean(_ *cobra.Command, _ []string) error {
	root := app.ResolveOutputRoot(outputRoot)

	var merr *multierror.Error
	for _, dir := range []string{
		filepath.Join(root, constants.KeysDirName),
		filepath.Join(root, constants.SecretsDirName),
		filepath.Join(root, constants.NetworkConfigsDirName),
	} {
		if !utils.DirExists(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		ux.Logger.PrintToUser("removed %s", dir)
	}

	if err := pipeline.CleanDatabases(composeDir); err != nil {
		merr = multierror.Append(merr, err)
	} else {
		ux.Logger.PrintToUser("removed databases under %s", filepath.Join(composeDir, constants.DBDirName))
	}

	envFile := filepath.Join(composeDir, constants.ComposeEnvFileName)
	if utils.FileExists(envFile) {
		if err := os.Remove(envFile); err != nil {
			merr = multierror.Append(merr, err)
		} else {
			ux.Logger.PrintToUser("removed %s", envFile)
		}
	}

	// Staging dirs normally vanish with their bootstrap run; a kill -9
	// can leave them behind.
	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "fabric-staging-*"))
	if err == nil {
		for _, dir := range leftovers {
			if err := os.RemoveAll(dir); err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			ux.Logger.PrintToUser("removed staging leftover %s", dir)
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("devnet state cleaned")
	return nil
}
