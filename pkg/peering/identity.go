// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peering resolves the dialable identity of a cluster-internal
// beacon node. The peer id comes from the node's identity API and the
// internally routable IP from its launch configuration; together they
// form the multiaddress downstream services dial. Those services run
// inside the same cluster network, so the multiaddress must carry the
// internal address, never the externally mapped one.
package peering

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// Identity is one resolved peer. All fields are empty when the target
// service is absent from the enclave.
type Identity struct {
	PeerID     string
	InternalIP string
	BaseURL    string
	Multiaddr  string
}

// Complete reports whether the identity carries everything activation
// needs to dial the peer.
func (id *Identity) Complete() bool {
	return id.PeerID != "" && id.Multiaddr != ""
}

// Resolver assembles peer identities from a running enclave.
type Resolver struct {
	orchestrator enclave.Orchestrator
	client       *http.Client
	log          *zap.SugaredLogger
}

func NewResolver(orchestrator enclave.Orchestrator, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		orchestrator: orchestrator,
		client:       &http.Client{Timeout: constants.HTTPRequestTimeout},
		log:          log,
	}
}

// identityResponse mirrors the beacon API identity envelope.
type identityResponse struct {
	Data struct {
		PeerID string `json:"peer_id"`
	} `json:"data"`
}

// Resolve looks up serviceName in the enclave and assembles its identity.
// A missing service yields an empty identity and a warning, not an error;
// the pipeline's own pre-activation check turns that into a failure.
func (r *Resolver) Resolve(ctx context.Context, enclaveName, serviceName string) (*Identity, error) {
	info, err := r.orchestrator.InspectEnclave(ctx, enclaveName)
	if err != nil {
		return nil, fmt.Errorf("inspecting enclave %s: %w", enclaveName, err)
	}
	if !info.HasService(serviceName) {
		ux.Logger.Warn("service %s not found in enclave %s, peering left unresolved", serviceName, enclaveName)
		return &Identity{}, nil
	}

	assignment, err := r.orchestrator.PortURL(ctx, enclaveName, serviceName, constants.HTTPPortID)
	if err != nil {
		return nil, fmt.Errorf("resolving %s endpoint: %w", serviceName, err)
	}
	baseURL := utils.HTTPBaseURL(assignment)

	peerID, err := r.queryPeerID(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("querying %s identity: %w", serviceName, err)
	}

	internalIP, err := r.internalIP(ctx, enclaveName, serviceName)
	if err != nil {
		return nil, err
	}

	id := &Identity{PeerID: peerID, InternalIP: internalIP, BaseURL: baseURL}
	if peerID != "" && internalIP != "" {
		addr := fmt.Sprintf("/ip4/%s/tcp/%d/p2p/%s", internalIP, constants.P2PPort, peerID)
		if _, err := multiaddr.NewMultiaddr(addr); err != nil {
			return nil, fmt.Errorf("assembled multiaddress %s is invalid: %w", addr, err)
		}
		id.Multiaddr = addr
		ux.Logger.GreenCheckmarkToUser("Resolved peer %s", addr)
	}
	return id, nil
}

func (r *Resolver) queryPeerID(ctx context.Context, baseURL string) (string, error) {
	url := baseURL + constants.IdentityEndpointPath
	var peerID string
	err := utils.WithTransferRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: status code %d", url, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var identity identityResponse
		if err := json.Unmarshal(body, &identity); err != nil {
			return fmt.Errorf("decoding identity response: %w", err)
		}
		peerID = identity.Data.PeerID
		return nil
	})
	if err != nil {
		return "", err
	}
	if peerID == "" {
		return "", fmt.Errorf("identity response from %s carries no peer id", url)
	}
	return peerID, nil
}

// internalIP pulls the address the node advertises for its own record out
// of the launch arguments. A node launched without one resolves to empty,
// which the pre-activation check reports.
func (r *Resolver) internalIP(ctx context.Context, enclaveName, serviceName string) (string, error) {
	svc, err := r.orchestrator.InspectService(ctx, enclaveName, serviceName)
	if err != nil {
		return "", fmt.Errorf("inspecting service %s: %w", serviceName, err)
	}
	ip := advertisedAddress(svc.Cmd)
	if ip == "" {
		ux.Logger.Warn("service %s advertises no %s, internal address unresolved", serviceName, constants.ENRAddressArg)
	} else {
		r.log.Debugf("service %s advertises internal address %s", serviceName, ip)
	}
	return ip, nil
}

// advertisedAddress finds the --enr-address value in a launch command,
// accepting both the = form and the split-argument form.
func advertisedAddress(cmd []string) string {
	for i, arg := range cmd {
		if value, ok := strings.CutPrefix(arg, constants.ENRAddressArg+"="); ok {
			return value
		}
		if arg == constants.ENRAddressArg && i+1 < len(cmd) {
			return cmd[i+1]
		}
	}
	return ""
}
