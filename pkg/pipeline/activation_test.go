// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/eth-fabric/fabric/internal/testutils"
	"github.com/eth-fabric/fabric/pkg/constants"
)

func completeActivationConfig() *ActivationConfig {
	return &ActivationConfig{
		PeerMultiaddr:    "/ip4/172.16.0.8/tcp/9000/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ",
		PeerID:           "QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ",
		ELBootnodes:      []string{"enode://aa11@172.16.0.10:30303", "enode://bb22@172.16.0.11:30303"},
		CLBootstrapNodes: []string{"enr:-Iq4QKk"},
		FeeRecipient:     constants.ZeroAddress,
		JWTPath:          "/devnet/network-configs/jwt/jwtsecret",
		KeysPath:         "/devnet/keys",
		SecretsPath:      "/devnet/secrets",
		GenesisPath:      "/devnet/network-configs/genesis",
	}
}

func TestActivationConfigValidate(t *testing.T) {
	require := testutils.SetupTest(t)

	type testCase struct {
		name   string
		mutate func(cfg *ActivationConfig)
		valid  bool
	}
	tests := []testCase{
		{name: "complete", mutate: func(*ActivationConfig) {}, valid: true},
		{name: "missing multiaddr", mutate: func(cfg *ActivationConfig) { cfg.PeerMultiaddr = "" }},
		{name: "missing peer id", mutate: func(cfg *ActivationConfig) { cfg.PeerID = "" }},
		{name: "missing both", mutate: func(cfg *ActivationConfig) { cfg.PeerMultiaddr = ""; cfg.PeerID = "" }},
	}

	for _, tt := range tests {
		cfg := completeActivationConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.valid {
			require.NoError(err, tt.name)
		} else {
			require.ErrorIs(err, constants.ErrResolutionIncomplete, tt.name)
		}
	}
}

func TestWriteEnvFileRendersAllKeys(t *testing.T) {
	require := testutils.SetupTest(t)

	composeDir := t.TempDir()
	cfg := completeActivationConfig()

	path, err := cfg.WriteEnvFile(composeDir)
	require.NoError(err)
	require.Equal(filepath.Join(composeDir, constants.ComposeEnvFileName), path)

	content, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal(`FABRIC_PEER_MULTIADDR=/ip4/172.16.0.8/tcp/9000/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ
FABRIC_PEER_ID=QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ
FABRIC_EL_BOOTNODES=enode://aa11@172.16.0.10:30303,enode://bb22@172.16.0.11:30303
FABRIC_CL_BOOTSTRAP_NODES=enr:-Iq4QKk
FABRIC_FEE_RECIPIENT=0x0000000000000000000000000000000000000000
FABRIC_JWT_PATH=/devnet/network-configs/jwt/jwtsecret
FABRIC_KEYS_PATH=/devnet/keys
FABRIC_SECRETS_PATH=/devnet/secrets
FABRIC_GENESIS_PATH=/devnet/network-configs/genesis
`, string(content))
}

// stubComposeCommand records compose invocations instead of spawning docker.
func stubComposeCommand(t *testing.T, calls *[][]string, envs *[][]string) {
	t.Helper()
	orig := composeCommand
	composeCommand = func(_ context.Context, _ string, env []string, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		*envs = append(*envs, env)
		return []byte("started"), nil
	}
	t.Cleanup(func() { composeCommand = orig })
}

func writeComposeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := []byte("services:\n  gateway:\n    image: fabric/gateway\n")
	if err := os.WriteFile(filepath.Join(dir, constants.ComposeFileName), content, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestComposeActivatorUp(t *testing.T) {
	require := testutils.SetupTest(t)

	var calls, envs [][]string
	stubComposeCommand(t, &calls, &envs)

	dir := writeComposeDir(t)
	activator := NewComposeActivator(dir, zap.NewNop().Sugar())
	cfg := completeActivationConfig()

	require.NoError(activator.Up(context.Background(), cfg))
	require.Len(calls, 1)
	require.Equal([]string{"compose", "-f", filepath.Join(dir, constants.ComposeFileName), "up", "-d"}, calls[0])

	for _, pair := range cfg.EnvPairs() {
		require.Contains(envs[0], pair)
	}
}

func TestComposeActivatorUpWithoutComposeFile(t *testing.T) {
	require := testutils.SetupTest(t)

	var calls, envs [][]string
	stubComposeCommand(t, &calls, &envs)

	activator := NewComposeActivator(t.TempDir(), zap.NewNop().Sugar())
	err := activator.Up(context.Background(), completeActivationConfig())
	require.ErrorIs(err, constants.ErrPreconditionMissing)
	require.Empty(calls)
}

func TestComposeActivatorDown(t *testing.T) {
	require := testutils.SetupTest(t)

	var calls, envs [][]string
	stubComposeCommand(t, &calls, &envs)

	dir := writeComposeDir(t)
	activator := NewComposeActivator(dir, zap.NewNop().Sugar())

	require.NoError(activator.Down(context.Background(), false))
	require.NoError(activator.Down(context.Background(), true))
	require.Len(calls, 2)
	require.Equal([]string{"compose", "-f", filepath.Join(dir, constants.ComposeFileName), "down"}, calls[0])
	require.Equal(
		[]string{"compose", "-f", filepath.Join(dir, constants.ComposeFileName), "down", "--volumes", "--remove-orphans"},
		calls[1],
	)
}

func TestComposeActivatorSurfacesCommandFailure(t *testing.T) {
	require := testutils.SetupTest(t)

	orig := composeCommand
	composeCommand = func(context.Context, string, []string, ...string) ([]byte, error) {
		return []byte("no such network"), fmt.Errorf("exit status 1")
	}
	t.Cleanup(func() { composeCommand = orig })

	activator := NewComposeActivator(writeComposeDir(t), zap.NewNop().Sugar())
	err := activator.Up(context.Background(), completeActivationConfig())
	require.Error(err)
	require.Contains(err.Error(), "no such network")
}

func TestCleanDatabases(t *testing.T) {
	require := testutils.SetupTest(t)

	composeDir := t.TempDir()
	for _, name := range []string{constants.DBGatewayDirName, constants.DBRelayDirName} {
		dir := filepath.Join(composeDir, constants.DBDirName, name)
		require.NoError(os.MkdirAll(dir, 0o755))
		require.NoError(os.WriteFile(filepath.Join(dir, "state.redb"), []byte("stale"), 0o644))
	}

	require.NoError(CleanDatabases(composeDir))
	require.NoDirExists(filepath.Join(composeDir, constants.DBDirName, constants.DBGatewayDirName))
	require.NoDirExists(filepath.Join(composeDir, constants.DBDirName, constants.DBRelayDirName))
	require.NoDirExists(filepath.Join(composeDir, constants.DBDirName, constants.DBProposerDirName))

	// a second pass over now-missing directories is fine
	require.NoError(CleanDatabases(composeDir))
}
