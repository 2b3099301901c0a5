// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package devnetcmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eth-fabric/fabric/pkg/artifacts"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/ux"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the devnet enclave status",
		Long: `The devnet status command prints whether the enclave is running, the
services inside it with their published ports, and how many validator
keystore artifacts the cluster produced.`,

		RunE:         runStatus,
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
	}

	addEnclaveFlag(cmd.Flags())

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	name := app.ResolveEnclaveName(enclaveName)
	orchestrator := newOrchestrator()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.EnclaveQueryTimeout)
	defer cancel()
	info, err := orchestrator.InspectEnclave(ctx, name)
	if err != nil {
		ux.Logger.PrintToUser("%s: not running", name)
		return err
	}

	const maxWidth = 100
	separator := strings.Repeat("=", min(maxWidth, getTerminalWidth()))

	ux.Logger.PrintToUser("")
	ux.Logger.PrintToUser("Enclave %s is %s", info.Name, info.Status)
	ux.Logger.PrintToUser("%s", separator)
	ux.Logger.PrintToUser("Number of services: %d", len(info.Services))
	ux.Logger.PrintToUser("Number of file artifacts: %d", len(info.FileArtifacts))
	ux.Logger.PrintToUser("")

	table := ux.DefaultTable([]string{"SERVICE", "STATUS", "PORTS"})
	for _, svc := range info.Services {
		_ = table.Append([]string{svc.Name, svc.Status, formatPorts(svc.Ports)})
	}
	_ = table.Render()

	ranges := artifacts.MatchArtifacts(info.ArtifactNames())
	if len(ranges) > 0 {
		total := 0
		for _, kr := range ranges {
			total += kr.Validators()
		}
		ux.Logger.PrintToUser("")
		ux.Logger.PrintToUser("%d keystore artifacts covering %s validators",
			len(ranges), ux.ConvertToStringWithThousandSeparator(uint64(total)))
	}

	return nil
}

// formatPorts renders published ports as "id:number" pairs in stable order.
func formatPorts(ports map[string]enclave.Port) string {
	ids := make([]string, 0, len(ports))
	for id := range ports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	pairs := make([]string, 0, len(ids))
	for _, id := range ids {
		pairs = append(pairs, fmt.Sprintf("%s:%d", id, ports[id].Number))
	}
	return strings.Join(pairs, ", ")
}

// getTerminalWidth returns the current terminal width, or a default if unable to determine
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80 // Default width
	}
	return width
}
