// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package enclave

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/eth-fabric/fabric/pkg/utils"
	"go.uber.org/zap"
)

// Orchestrator is the cluster-control contract consumed by the pipeline.
// The enclave itself is referenced by name, never owned.
type Orchestrator interface {
	InspectEnclave(ctx context.Context, name string) (*EnclaveInfo, error)
	EnclaveExists(ctx context.Context, name string) (bool, error)
	RemoveEnclave(ctx context.Context, name string) error
	RunPackage(ctx context.Context, name, packageDir, argsFile string) error
	DownloadArtifact(ctx context.Context, enclaveName, artifactName, destDir string) error
	PortURL(ctx context.Context, enclaveName, serviceName, portID string) (string, error)
	InspectService(ctx context.Context, enclaveName, serviceName string) (*ServiceInspect, error)
}

// Kurtosis drives the kurtosis CLI through a Runner.
type Kurtosis struct {
	runner Runner
	log    *zap.SugaredLogger
}

func NewKurtosis(binPath string, log *zap.SugaredLogger) *Kurtosis {
	return &Kurtosis{runner: NewExecRunner(binPath), log: log}
}

// NewKurtosisWithRunner injects a Runner, used by tests.
func NewKurtosisWithRunner(runner Runner, log *zap.SugaredLogger) *Kurtosis {
	return &Kurtosis{runner: runner, log: log}
}

func (k *Kurtosis) InspectEnclave(ctx context.Context, name string) (*EnclaveInfo, error) {
	out, err := k.runner.Run(ctx, "enclave", "inspect", name, "--output", "json")
	if err != nil {
		return nil, err
	}
	var info EnclaveInfo
	if err := json.Unmarshal([]byte(utils.RemoveLineCleanChars(string(out))), &info); err != nil {
		return nil, fmt.Errorf("failed decoding enclave descriptor for %s: %w", name, err)
	}
	return &info, nil
}

func (k *Kurtosis) EnclaveExists(ctx context.Context, name string) (bool, error) {
	_, err := k.InspectEnclave(ctx, name)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (k *Kurtosis) RemoveEnclave(ctx context.Context, name string) error {
	k.log.Debugf("removing enclave %s", name)
	_, err := k.runner.Run(ctx, "enclave", "rm", "-f", name)
	return err
}

func (k *Kurtosis) RunPackage(ctx context.Context, name, packageDir, argsFile string) error {
	k.log.Debugf("launching package %s into enclave %s", packageDir, name)
	args := []string{"run", packageDir, "--enclave", name}
	if argsFile != "" {
		args = append(args, "--args-file", argsFile)
	}
	_, err := k.runner.Run(ctx, args...)
	return err
}

func (k *Kurtosis) DownloadArtifact(ctx context.Context, enclaveName, artifactName, destDir string) error {
	k.log.Debugf("downloading artifact %s from enclave %s", artifactName, enclaveName)
	_, err := k.runner.Run(ctx, "files", "download", enclaveName, artifactName, destDir)
	return err
}

// PortURL returns the externally reachable value the orchestrator assigned
// to (service, portID): either a full URL or a bare host:port.
func (k *Kurtosis) PortURL(ctx context.Context, enclaveName, serviceName, portID string) (string, error) {
	out, err := k.runner.Run(ctx, "port", "print", enclaveName, serviceName, portID)
	if err != nil {
		return "", err
	}
	value := firstLine(utils.RemoveLineCleanChars(string(out)))
	if value == "" {
		return "", fmt.Errorf("empty port assignment for %s/%s", serviceName, portID)
	}
	return value, nil
}

func (k *Kurtosis) InspectService(ctx context.Context, enclaveName, serviceName string) (*ServiceInspect, error) {
	out, err := k.runner.Run(ctx, "service", "inspect", enclaveName, serviceName, "--output", "json")
	if err != nil {
		return nil, err
	}
	var info ServiceInspect
	if err := json.Unmarshal([]byte(utils.RemoveLineCleanChars(string(out))), &info); err != nil {
		return nil, fmt.Errorf("failed decoding service descriptor for %s: %w", serviceName, err)
	}
	return &info, nil
}

// isNotFound matches the CLI failure modes for a missing enclave
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "no enclave")
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// SplitHostPort splits a port assignment that may carry a URL scheme
// ("http://127.0.0.1:55034") or be a bare "127.0.0.1:55034".
func SplitHostPort(assignment string) (host, port string, err error) {
	trimmed := assignment
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	host, port, err = net.SplitHostPort(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("cannot split host and port from %q: %w", assignment, err)
	}
	return host, port, nil
}
