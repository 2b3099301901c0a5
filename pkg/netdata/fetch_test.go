// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eth-fabric/fabric/internal/testutils"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeGenesisFixture lays out the files the cluster bundles for downstream
// nodes, wrapped in a network-configs directory like the real archive.
func writeGenesisFixture(require *require.Assertions, root string) {
	inner := filepath.Join(root, "network-configs")
	require.NoError(os.MkdirAll(inner, 0o755))
	require.NoError(os.WriteFile(filepath.Join(inner, constants.BootnodeFileName),
		[]byte("enode://abc@172.16.0.10:30303\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(inner, constants.BootstrapNodesFileName),
		[]byte("enr:-Iq4QMq\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(inner, constants.GenesisManifestFileName),
		[]byte("MIN_GENESIS_TIME: 1700000000\n"), 0o644))
}

func bundleServer(require *require.Assertions, fixtureRoot string) *httptest.Server {
	archive := filepath.Join(fixtureRoot, "..", "bundle.tar.gz")
	testutils.CreateTarGz(require, fixtureRoot, archive)
	data, err := os.ReadFile(archive)
	require.NoError(err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != constants.NetworkConfigArchivePath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
}

func TestFetchNetworkConfigsOverBulkChannel(t *testing.T) {
	require := testutils.SetupTest(t)

	fixture := filepath.Join(t.TempDir(), "fixture")
	writeGenesisFixture(require, fixture)
	server := bundleServer(require, fixture)
	defer server.Close()

	staging := t.TempDir()
	destRoot := t.TempDir()
	// stale content from a previous run must not survive
	genesisDir := filepath.Join(destRoot, constants.GenesisDirName)
	require.NoError(os.MkdirAll(genesisDir, 0o755))
	require.NoError(os.WriteFile(filepath.Join(genesisDir, "stale.txt"), []byte("old"), 0o644))

	fake := &testutils.FakeOrchestrator{
		PortURLFn: func(_ context.Context, _, serviceName, portID string) (string, error) {
			require.Equal(constants.FileServerServiceName, serviceName)
			require.Equal(constants.HTTPPortID, portID)
			return server.URL, nil
		},
		DownloadArtifactFn: func(_ context.Context, _, artifactName, destDir string) error {
			require.Equal(constants.JWTArtifactName, artifactName)
			require.NoError(os.MkdirAll(destDir, 0o755))
			return os.WriteFile(filepath.Join(destDir, constants.JWTFileName), []byte("0xdeadbeef"), 0o600)
		},
	}

	fetcher := NewFetcher(fake, zap.NewNop().Sugar())
	require.NoError(fetcher.FetchNetworkConfigs(context.Background(), "preconf-testnet", staging, destRoot))

	// wrapping directory lifted, fixed relative paths hold
	data, err := os.ReadFile(filepath.Join(genesisDir, constants.BootnodeFileName))
	require.NoError(err)
	require.Equal("enode://abc@172.16.0.10:30303\n", string(data))
	require.FileExists(filepath.Join(genesisDir, constants.BootstrapNodesFileName))
	require.FileExists(filepath.Join(genesisDir, constants.GenesisManifestFileName))
	require.NoFileExists(filepath.Join(genesisDir, "stale.txt"))

	jwt, err := os.ReadFile(filepath.Join(destRoot, constants.JWTDirName, constants.JWTFileName))
	require.NoError(err)
	require.Equal("0xdeadbeef", string(jwt))
}

func TestFetchNetworkConfigsFallsBackToArtifact(t *testing.T) {
	require := testutils.SetupTest(t)

	staging := t.TempDir()
	destRoot := t.TempDir()

	fake := &testutils.FakeOrchestrator{
		PortURLFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "", fmt.Errorf("service not found")
		},
		DownloadArtifactFn: func(_ context.Context, _, artifactName, destDir string) error {
			switch artifactName {
			case constants.GenesisArtifactName:
				writeGenesisFixture(require, destDir)
			case constants.JWTArtifactName:
				require.NoError(os.MkdirAll(destDir, 0o755))
				// secret file name drifts across cluster versions
				return os.WriteFile(filepath.Join(destDir, "jwt.hex"), []byte("0xfeed"), 0o600)
			default:
				return fmt.Errorf("unexpected artifact %s", artifactName)
			}
			return nil
		},
	}

	fetcher := NewFetcher(fake, zap.NewNop().Sugar())
	require.NoError(fetcher.FetchNetworkConfigs(context.Background(), "preconf-testnet", staging, destRoot))

	require.FileExists(filepath.Join(destRoot, constants.GenesisDirName, constants.BootnodeFileName))
	require.FileExists(filepath.Join(destRoot, constants.GenesisDirName, constants.GenesisManifestFileName))

	jwt, err := os.ReadFile(filepath.Join(destRoot, constants.JWTDirName, constants.JWTFileName))
	require.NoError(err)
	require.Equal("0xfeed", string(jwt))
}

func TestFetchNetworkConfigsWrapsTotalFailure(t *testing.T) {
	require := testutils.SetupTest(t)

	fake := &testutils.FakeOrchestrator{
		PortURLFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "", fmt.Errorf("service not found")
		},
		DownloadArtifactFn: func(_ context.Context, _, _, _ string) error {
			return fmt.Errorf("enclave is gone")
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	fetcher := NewFetcher(fake, zap.NewNop().Sugar())
	err := fetcher.FetchNetworkConfigs(ctx, "preconf-testnet", t.TempDir(), t.TempDir())
	require.ErrorIs(err, constants.ErrTransferFailed)
	require.ErrorContains(err, "confirm the file server service is enabled")
}

func TestFetchManifestFindsNestedManifest(t *testing.T) {
	require := testutils.SetupTest(t)

	staging := t.TempDir()
	fake := &testutils.FakeOrchestrator{
		DownloadArtifactFn: func(_ context.Context, _, artifactName, destDir string) error {
			require.Equal(constants.GenesisArtifactName, artifactName)
			writeGenesisFixture(require, destDir)
			return nil
		},
	}

	fetcher := NewFetcher(fake, zap.NewNop().Sugar())
	manifest, err := fetcher.FetchManifest(context.Background(), "preconf-testnet", staging)
	require.NoError(err)
	require.Equal(
		filepath.Join(staging, constants.GenesisArtifactName, "network-configs", constants.GenesisManifestFileName),
		manifest,
	)

	// second call reuses the staged copy instead of downloading again
	redownloaded := false
	fake.DownloadArtifactFn = func(_ context.Context, _, _, _ string) error {
		redownloaded = true
		return fmt.Errorf("should not be called")
	}
	manifest2, err := fetcher.FetchManifest(context.Background(), "preconf-testnet", staging)
	require.NoError(err)
	require.Equal(manifest, manifest2)
	require.False(redownloaded)
}

func TestFetchManifestMissingManifestIsFatal(t *testing.T) {
	require := testutils.SetupTest(t)

	fake := &testutils.FakeOrchestrator{
		DownloadArtifactFn: func(_ context.Context, _, _, destDir string) error {
			return os.MkdirAll(destDir, 0o755)
		},
	}

	fetcher := NewFetcher(fake, zap.NewNop().Sugar())
	_, err := fetcher.FetchManifest(context.Background(), "preconf-testnet", t.TempDir())
	require.ErrorIs(err, constants.ErrPreconditionMissing)
}

