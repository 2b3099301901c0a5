// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/utils"
)

// Compose environment keys rendered from the ActivationConfig. They exist
// only at the Compose process boundary.
const (
	envPeerMultiaddr    = "FABRIC_PEER_MULTIADDR"
	envPeerID           = "FABRIC_PEER_ID"
	envELBootnodes      = "FABRIC_EL_BOOTNODES"
	envCLBootstrapNodes = "FABRIC_CL_BOOTSTRAP_NODES"
	envFeeRecipient     = "FABRIC_FEE_RECIPIENT"
	envJWTPath          = "FABRIC_JWT_PATH"
	envKeysPath         = "FABRIC_KEYS_PATH"
	envSecretsPath      = "FABRIC_SECRETS_PATH"
	envGenesisPath      = "FABRIC_GENESIS_PATH"
)

// ActivationConfig carries everything the downstream deployment needs to
// start, assembled from the outputs of the earlier pipeline steps.
type ActivationConfig struct {
	PeerMultiaddr    string
	PeerID           string
	ELBootnodes      []string
	CLBootstrapNodes []string
	FeeRecipient     string
	JWTPath          string
	KeysPath         string
	SecretsPath      string
	GenesisPath      string
}

// Validate enforces the hand-off contract: activation without a resolved
// builder peer would start services that can never connect.
func (c *ActivationConfig) Validate() error {
	if c.PeerMultiaddr == "" || c.PeerID == "" {
		return fmt.Errorf("%w: builder peer multiaddress or peer id is empty", constants.ErrResolutionIncomplete)
	}
	return nil
}

// EnvPairs renders the config as KEY=VALUE strings in a fixed order, with
// list values comma-joined.
func (c *ActivationConfig) EnvPairs() []string {
	return []string{
		envPeerMultiaddr + "=" + c.PeerMultiaddr,
		envPeerID + "=" + c.PeerID,
		envELBootnodes + "=" + strings.Join(c.ELBootnodes, ","),
		envCLBootstrapNodes + "=" + strings.Join(c.CLBootstrapNodes, ","),
		envFeeRecipient + "=" + c.FeeRecipient,
		envJWTPath + "=" + c.JWTPath,
		envKeysPath + "=" + c.KeysPath,
		envSecretsPath + "=" + c.SecretsPath,
		envGenesisPath + "=" + c.GenesisPath,
	}
}

// WriteEnvFile renders the pairs into <composeDir>/.env so the Compose file
// can substitute them, and returns the written path.
func (c *ActivationConfig) WriteEnvFile(composeDir string) (string, error) {
	path := filepath.Join(composeDir, constants.ComposeEnvFileName)
	data := strings.Join(c.EnvPairs(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), constants.WriteReadReadPerms); err != nil {
		return "", fmt.Errorf("writing activation environment: %w", err)
	}
	return path, nil
}

// CleanDatabases removes the downstream services' persisted state so a
// re-bootstrapped chain never starts from stale data. Missing directories
// are fine.
func CleanDatabases(composeDir string) error {
	var merr *multierror.Error
	for _, name := range []string{
		constants.DBGatewayDirName,
		constants.DBProposerDirName,
		constants.DBRelayDirName,
	} {
		dir := filepath.Join(composeDir, constants.DBDirName, name)
		if err := os.RemoveAll(dir); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("removing %s: %w", dir, err))
		}
	}
	return merr.ErrorOrNil()
}

// composeCommand is a variable for testing purposes to allow mocking the CLI call
var composeCommand = func(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, constants.DockerBinName, args...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}

// ComposeActivator starts and stops the downstream deployment with docker
// compose against a fixed deployment directory.
type ComposeActivator struct {
	composeDir string
	log        *zap.SugaredLogger
}

func NewComposeActivator(composeDir string, log *zap.SugaredLogger) *ComposeActivator {
	return &ComposeActivator{composeDir: composeDir, log: log}
}

func (a *ComposeActivator) composeFile() (string, error) {
	path := filepath.Join(a.composeDir, constants.ComposeFileName)
	if !utils.FileExists(path) {
		return "", fmt.Errorf("%w: %s", constants.ErrPreconditionMissing, path)
	}
	return path, nil
}

// Up starts the Compose stack with the activation environment applied.
func (a *ComposeActivator) Up(ctx context.Context, cfg *ActivationConfig) error {
	composeFile, err := a.composeFile()
	if err != nil {
		return err
	}
	env := append(os.Environ(), cfg.EnvPairs()...)
	output, err := composeCommand(ctx, a.composeDir, env, "compose", "-f", composeFile, "up", "-d")
	if err != nil {
		return fmt.Errorf("failed to start docker compose: %w, output: %s", err, string(output))
	}
	a.log.Debugf("docker compose up output: %s", string(output))
	return nil
}

// Down stops the Compose stack. With purge it also removes volumes and
// orphaned containers.
func (a *ComposeActivator) Down(ctx context.Context, purge bool) error {
	composeFile, err := a.composeFile()
	if err != nil {
		return err
	}
	args := []string{"compose", "-f", composeFile, "down"}
	if purge {
		args = append(args, "--volumes", "--remove-orphans")
	}
	output, err := composeCommand(ctx, a.composeDir, os.Environ(), args...)
	if err != nil {
		return fmt.Errorf("failed to stop docker compose: %w, output: %s", err, string(output))
	}
	a.log.Debugf("docker compose down output: %s", string(output))
	return nil
}
