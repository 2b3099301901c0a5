// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package enclave_test

import (
	"context"
	"errors"
	"testing"

	"github.com/eth-fabric/fabric/internal/testutils"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const inspectJSON = `{
  "name": "preconf-testnet",
  "uuid": "a1b2c3",
  "status": "RUNNING",
  "services": [
    {
      "name": "cl-1-lighthouse-geth",
      "uuid": "s1",
      "status": "RUNNING",
      "ports": {"http": {"number": 4000, "transport_protocol": "TCP", "maybe_url": "http://127.0.0.1:55034"}}
    }
  ],
  "file_artifacts": [
    {"name": "1-lighthouse-geth-0-3", "uuid": "f1"},
    {"name": "el_cl_genesis_data", "uuid": "f2"}
  ]
}`

func newTestClient(runner enclave.Runner) *enclave.Kurtosis {
	return enclave.NewKurtosisWithRunner(runner, zap.NewNop().Sugar())
}

func TestInspectEnclaveDecodesDescriptor(t *testing.T) {
	require := require.New(t)
	runner := testutils.NewFakeRunner()
	runner.Responses["enclave inspect preconf-testnet --output json"] = inspectJSON

	info, err := newTestClient(runner).InspectEnclave(context.Background(), "preconf-testnet")
	require.NoError(err)
	require.Equal("preconf-testnet", info.Name)
	require.True(info.HasService("cl-1-lighthouse-geth"))
	require.False(info.HasService("missing-service"))
	require.Equal([]string{"1-lighthouse-geth-0-3", "el_cl_genesis_data"}, info.ArtifactNames())
}

func TestInspectEnclaveScrubsTerminalNoise(t *testing.T) {
	require := require.New(t)
	runner := testutils.NewFakeRunner()
	runner.Responses["enclave inspect preconf-testnet --output json"] = "\x1b[32m" + inspectJSON + "\x1b[0m"

	info, err := newTestClient(runner).InspectEnclave(context.Background(), "preconf-testnet")
	require.NoError(err)
	require.Equal("RUNNING", info.Status)
}

func TestEnclaveExists(t *testing.T) {
	require := require.New(t)
	runner := testutils.NewFakeRunner()
	runner.Responses["enclave inspect live --output json"] = inspectJSON
	runner.Errors["enclave inspect gone --output json"] = errors.New(`enclave "gone" not found`)
	runner.Errors["enclave inspect broken --output json"] = errors.New("connection refused")

	client := newTestClient(runner)

	exists, err := client.EnclaveExists(context.Background(), "live")
	require.NoError(err)
	require.True(exists)

	exists, err = client.EnclaveExists(context.Background(), "gone")
	require.NoError(err)
	require.False(exists)

	_, err = client.EnclaveExists(context.Background(), "broken")
	require.Error(err)
}

func TestPortURLReturnsFirstLine(t *testing.T) {
	require := require.New(t)
	runner := testutils.NewFakeRunner()
	runner.Responses["port print preconf-testnet cl-1-lighthouse-geth http"] = "\nhttp://127.0.0.1:55034\n"

	url, err := newTestClient(runner).PortURL(context.Background(), "preconf-testnet", "cl-1-lighthouse-geth", "http")
	require.NoError(err)
	require.Equal("http://127.0.0.1:55034", url)
}

func TestInspectServiceDecodesLaunchConfig(t *testing.T) {
	require := require.New(t)
	runner := testutils.NewFakeRunner()
	runner.Responses["service inspect preconf-testnet cl-2-lighthouse-reth-builder --output json"] = `{
	  "name": "cl-2-lighthouse-reth-builder",
	  "image": "sigp/lighthouse:latest",
	  "ports": {"http": {"number": 4000, "transport_protocol": "TCP"}},
	  "entrypoint": ["lighthouse"],
	  "cmd": ["bn", "--enr-address=172.16.0.14", "--port=9000"]
	}`

	svc, err := newTestClient(runner).InspectService(context.Background(), "preconf-testnet", "cl-2-lighthouse-reth-builder")
	require.NoError(err)
	require.Equal("cl-2-lighthouse-reth-builder", svc.Name)
	require.Contains(svc.Cmd, "--enr-address=172.16.0.14")
}

func TestSplitHostPort(t *testing.T) {
	require := require.New(t)

	host, port, err := enclave.SplitHostPort("http://127.0.0.1:55034")
	require.NoError(err)
	require.Equal("127.0.0.1", host)
	require.Equal("55034", port)

	host, port, err = enclave.SplitHostPort("127.0.0.1:8545")
	require.NoError(err)
	require.Equal("127.0.0.1", host)
	require.Equal("8545", port)

	_, _, err = enclave.SplitHostPort("garbage")
	require.Error(err)
}
