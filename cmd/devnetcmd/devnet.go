// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnetcmd

import (
	"github.com/spf13/cobra"

	"github.com/eth-fabric/fabric/pkg/application"
	"github.com/eth-fabric/fabric/pkg/enclave"
)

var app *application.Fabric

// NewCmd creates the devnet command for managing the preconfirmation devnet.
func NewCmd(injectedApp *application.Fabric) *cobra.Command {
	app = injectedApp
	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "Manage the disposable preconfirmation devnet",
		Long: `The devnet command suite drives a disposable preconfirmation test network:
a multi-service Ethereum cluster launched into a named enclave, plus the
downstream gateway/proposer/relay stack activated with Docker Compose.

COMMANDS:

  up      Bootstrap the cluster, synthesize configs and activate services
  down    Tear down the enclave (and optionally the Compose stack)
  status  Show the enclave's services, ports and validator artifacts
  clean   Remove generated keys, configs and databases

TYPICAL WORKFLOW:

  # Bring the whole devnet up from scratch
  fabric devnet up

  # Re-generate configs against the running cluster
  fabric devnet up --skip-cluster

  # Check what is running
  fabric devnet status

  # Throw everything away
  fabric devnet down --purge
  fabric devnet clean

The enclave name defaults to the configured value and can be overridden per
command with --enclave or the FABRIC_ENCLAVE environment variable.`,
	}

	cmd.AddCommand(newUpCmd())
	cmd.AddCommand(newDownCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newCleanCmd())

	return cmd
}

// newOrchestrator builds the cluster client every subcommand talks through.
func newOrchestrator() *enclave.Kurtosis {
	return enclave.NewKurtosis(app.ResolveKurtosisPath(), app.Log)
}
