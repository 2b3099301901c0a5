// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package devnetcmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/pipeline"
	"github.com/eth-fabric/fabric/pkg/prompts"
	"github.com/eth-fabric/fabric/pkg/ux"
)

func newDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Tear down the devnet enclave",
		Long: `The devnet down command removes the enclave and every service inside it.
Generated outputs (keys, network configs, deployment configs) stay on disk;
use 'fabric devnet clean' to remove those as well.

With --purge the Docker Compose stack is also stopped and its volumes and
orphaned containers removed.`,

		RunE:         runDown,
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
	}

	addEnclaveFlag(cmd.Flags())
	addComposeDirFlag(cmd.Flags())
	cmd.Flags().BoolVar(&purge, "purge", false,
		"also stop the Compose stack and remove its volumes")
	addForceFlag(cmd.Flags())

	return cmd
}

func runDown(cmd *cobra.Command, _ []string) error {
	name := app.ResolveEnclaveName(enclaveName)
	orchestrator := newOrchestrator()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.EnclaveQueryTimeout)
	exists, err := orchestrator.EnclaveExists(ctx, name)
	cancel()
	if err != nil {
		return err
	}

	if !exists {
		ux.Logger.PrintToUser("no enclave named %s, nothing to remove", name)
	} else {
		if !force && prompts.IsInteractive() {
			yes, err := app.Prompt.CaptureYesNo("Tear down enclave " + name + " and all its services?")
			if err != nil {
				return err
			}
			if !yes {
				ux.Logger.PrintToUser("Aborted.")
				return nil
			}
		}
		if err := orchestrator.RemoveEnclave(cmd.Context(), name); err != nil {
			return err
		}
		ux.Logger.GreenCheckmarkToUser("removed enclave %s", name)
	}

	if purge {
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.ComposeTimeout)
		defer cancel()
		if err := pipeline.NewComposeActivator(composeDir, app.Log).Down(ctx, true); err != nil {
			return err
		}
		ux.Logger.GreenCheckmarkToUser("compose stack stopped, volumes removed")
	}
	return nil
}
