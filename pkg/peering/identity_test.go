// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peering

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eth-fabric/fabric/internal/testutils"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"go.uber.org/zap"
)

const testPeerID = "QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ"

func identityServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != constants.IdentityEndpointPath {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func builderEnclave() *enclave.EnclaveInfo {
	return &enclave.EnclaveInfo{
		Name:   "preconf-testnet",
		Status: "RUNNING",
		Services: []enclave.ServiceSummary{
			{Name: constants.BeaconServiceName, Status: "RUNNING"},
			{Name: constants.BuilderBeaconServiceName, Status: "RUNNING"},
		},
	}
}

func TestResolveAssemblesMultiaddr(t *testing.T) {
	require := testutils.SetupTest(t)

	server := identityServer(http.StatusOK, `{"data":{"peer_id":"`+testPeerID+`"}}`)
	defer server.Close()

	fake := &testutils.FakeOrchestrator{
		InspectEnclaveFn: func(_ context.Context, _ string) (*enclave.EnclaveInfo, error) {
			return builderEnclave(), nil
		},
		PortURLFn: func(_ context.Context, _, serviceName, portID string) (string, error) {
			require.Equal(constants.BuilderBeaconServiceName, serviceName)
			require.Equal(constants.HTTPPortID, portID)
			return server.URL, nil
		},
		InspectServiceFn: func(_ context.Context, _, serviceName string) (*enclave.ServiceInspect, error) {
			return &enclave.ServiceInspect{
				Name: serviceName,
				Cmd:  []string{"lighthouse", "bn", "--enr-address=172.16.0.14", "--port=9000"},
			}, nil
		},
	}

	resolver := NewResolver(fake, zap.NewNop().Sugar())
	id, err := resolver.Resolve(context.Background(), "preconf-testnet", constants.BuilderBeaconServiceName)
	require.NoError(err)
	require.Equal(testPeerID, id.PeerID)
	require.Equal("172.16.0.14", id.InternalIP)
	require.Equal(server.URL, id.BaseURL)
	require.Equal("/ip4/172.16.0.14/tcp/9000/p2p/"+testPeerID, id.Multiaddr)
	require.True(id.Complete())
}

func TestResolveMissingServiceYieldsEmptyIdentity(t *testing.T) {
	require := testutils.SetupTest(t)

	fake := &testutils.FakeOrchestrator{
		InspectEnclaveFn: func(_ context.Context, _ string) (*enclave.EnclaveInfo, error) {
			return &enclave.EnclaveInfo{Name: "preconf-testnet", Status: "RUNNING"}, nil
		},
	}

	resolver := NewResolver(fake, zap.NewNop().Sugar())
	id, err := resolver.Resolve(context.Background(), "preconf-testnet", constants.BuilderBeaconServiceName)
	require.NoError(err)
	require.Empty(id.PeerID)
	require.Empty(id.Multiaddr)
	require.False(id.Complete())
}

func TestResolveWithoutAdvertisedAddress(t *testing.T) {
	require := testutils.SetupTest(t)

	server := identityServer(http.StatusOK, `{"data":{"peer_id":"`+testPeerID+`"}}`)
	defer server.Close()

	fake := &testutils.FakeOrchestrator{
		InspectEnclaveFn: func(_ context.Context, _ string) (*enclave.EnclaveInfo, error) {
			return builderEnclave(), nil
		},
		PortURLFn: func(_ context.Context, _, _, _ string) (string, error) {
			return server.URL, nil
		},
		InspectServiceFn: func(_ context.Context, _, serviceName string) (*enclave.ServiceInspect, error) {
			return &enclave.ServiceInspect{Name: serviceName, Cmd: []string{"lighthouse", "bn"}}, nil
		},
	}

	resolver := NewResolver(fake, zap.NewNop().Sugar())
	id, err := resolver.Resolve(context.Background(), "preconf-testnet", constants.BuilderBeaconServiceName)
	require.NoError(err)
	require.Equal(testPeerID, id.PeerID)
	require.Empty(id.InternalIP)
	require.Empty(id.Multiaddr)
	require.False(id.Complete())
}

func TestResolveIdentityEndpointFailure(t *testing.T) {
	require := testutils.SetupTest(t)

	server := identityServer(http.StatusInternalServerError, "boom")
	defer server.Close()

	fake := &testutils.FakeOrchestrator{
		InspectEnclaveFn: func(_ context.Context, _ string) (*enclave.EnclaveInfo, error) {
			return builderEnclave(), nil
		},
		PortURLFn: func(_ context.Context, _, _, _ string) (string, error) {
			return server.URL, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	resolver := NewResolver(fake, zap.NewNop().Sugar())
	_, err := resolver.Resolve(ctx, "preconf-testnet", constants.BuilderBeaconServiceName)
	require.ErrorContains(err, "identity")
}

func TestAdvertisedAddress(t *testing.T) {
	require := testutils.SetupTest(t)

	require.Equal("172.16.0.14", advertisedAddress([]string{"bn", "--enr-address=172.16.0.14"}))
	require.Equal("10.0.0.3", advertisedAddress([]string{"bn", "--enr-address", "10.0.0.3"}))
	require.Empty(advertisedAddress([]string{"bn", "--port=9000"}))
	require.Empty(advertisedAddress(nil))
}
