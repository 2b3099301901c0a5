// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package devnetcmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/dependencies"
	"github.com/eth-fabric/fabric/pkg/pipeline"
	"github.com/eth-fabric/fabric/pkg/prompts"
	"github.com/eth-fabric/fabric/pkg/ux"
)

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the devnet and activate the preconfirmation services",
		Long: `The devnet up command runs the full bootstrap sequence: it tears down any
enclave with the configured name, launches the devnet package into a fresh
one, consolidates validator keys and secrets, fetches genesis and JWT data,
rewrites the deployment configs against the live port assignments, and
finally starts the downstream services with Docker Compose.

The sequence is strictly ordered and stops at the first failure. Re-running
it is always safe: previous outputs are wiped before they are rebuilt.

With --skip-cluster the enclave is left untouched and must already be
running; only the configuration synthesis and activation phases execute.`,

		RunE:         runUp,
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
	}

	cmd.Flags().BoolVar(&skipCluster, "skip-cluster", false,
		"reuse the running cluster instead of relaunching it")
	addEnclaveFlag(cmd.Flags())
	addOutputRootFlag(cmd.Flags())
	addComposeDirFlag(cmd.Flags())
	cmd.Flags().StringVar(&packageDir, "package", constants.DefaultPackageDir,
		"devnet package locator handed to the orchestrator")
	cmd.Flags().StringVar(&argsFile, "args-file", constants.DefaultArgsFile,
		"network parameter file handed to the orchestrator")
	cmd.Flags().StringVar(&feeRecipient, "fee-recipient", "",
		"fee recipient address for built blocks (defaults to the zero address)")
	addForceFlag(cmd.Flags())

	return cmd
}

func runUp(cmd *cobra.Command, _ []string) error {
	name := app.ResolveEnclaveName(enclaveName)
	root := app.ResolveOutputRoot(outputRoot)

	if err := dependencies.Preflight(cmd.Context(), app.ResolveKurtosisPath()); err != nil {
		return err
	}

	orchestrator := newOrchestrator()
	if !skipCluster && !force && prompts.IsInteractive() {
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.EnclaveQueryTimeout)
		exists, err := orchestrator.EnclaveExists(ctx, name)
		cancel()
		if err != nil {
			return err
		}
		if exists {
			yes, err := app.Prompt.CaptureYesNo("Enclave " + name + " is live and will be torn down. Continue?")
			if err != nil {
				return err
			}
			if !yes {
				ux.Logger.PrintToUser("Aborted.")
				return nil
			}
		}
	}

	opts := pipeline.Options{
		EnclaveName:  name,
		PackageDir:   packageDir,
		ArgsFile:     argsFile,
		OutputRoot:   root,
		ComposeDir:   composeDir,
		FeeRecipient: feeRecipient,
		SkipCluster:  skipCluster,
	}
	if err := pipeline.New(orchestrator, opts, app.Log).Run(cmd.Context()); err != nil {
		return err
	}

	ux.Logger.PrintLineSeparator()
	ux.Logger.GreenCheckmarkToUser("devnet %s is ready", name)
	ux.Logger.PrintToUser("outputs:    %s", root)
	ux.Logger.PrintToUser("deployment: %s", composeDir)
	return nil
}
