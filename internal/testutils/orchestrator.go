// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"context"
	"fmt"

	"github.com/eth-fabric/fabric/pkg/enclave"
)

// FakeOrchestrator implements enclave.Orchestrator with overridable function
// fields. Calls without an override fail loudly so tests only exercise the
// paths they declare.
type FakeOrchestrator struct {
	InspectEnclaveFn   func(ctx context.Context, name string) (*enclave.EnclaveInfo, error)
	EnclaveExistsFn    func(ctx context.Context, name string) (bool, error)
	RemoveEnclaveFn    func(ctx context.Context, name string) error
	RunPackageFn       func(ctx context.Context, name, packageDir, argsFile string) error
	DownloadArtifactFn func(ctx context.Context, enclaveName, artifactName, destDir string) error
	PortURLFn          func(ctx context.Context, enclaveName, serviceName, portID string) (string, error)
	InspectServiceFn   func(ctx context.Context, enclaveName, serviceName string) (*enclave.ServiceInspect, error)
}

func (f *FakeOrchestrator) InspectEnclave(ctx context.Context, name string) (*enclave.EnclaveInfo, error) {
	if f.InspectEnclaveFn == nil {
		return nil, fmt.Errorf("unexpected InspectEnclave(%s)", name)
	}
	return f.InspectEnclaveFn(ctx, name)
}

func (f *FakeOrchestrator) EnclaveExists(ctx context.Context, name string) (bool, error) {
	if f.EnclaveExistsFn == nil {
		return false, fmt.Errorf("unexpected EnclaveExists(%s)", name)
	}
	return f.EnclaveExistsFn(ctx, name)
}

func (f *FakeOrchestrator) RemoveEnclave(ctx context.Context, name string) error {
	if f.RemoveEnclaveFn == nil {
		return fmt.Errorf("unexpected RemoveEnclave(%s)", name)
	}
	return f.RemoveEnclaveFn(ctx, name)
}

func (f *FakeOrchestrator) RunPackage(ctx context.Context, name, packageDir, argsFile string) error {
	if f.RunPackageFn == nil {
		return fmt.Errorf("unexpected RunPackage(%s)", name)
	}
	return f.RunPackageFn(ctx, name, packageDir, argsFile)
}

func (f *FakeOrchestrator) DownloadArtifact(ctx context.Context, enclaveName, artifactName, destDir string) error {
	if f.DownloadArtifactFn == nil {
		return fmt.Errorf("unexpected DownloadArtifact(%s)", artifactName)
	}
	return f.DownloadArtifactFn(ctx, enclaveName, artifactName, destDir)
}

func (f *FakeOrchestrator) PortURL(ctx context.Context, enclaveName, serviceName, portID string) (string, error) {
	if f.PortURLFn == nil {
		return "", fmt.Errorf("unexpected PortURL(%s, %s)", serviceName, portID)
	}
	return f.PortURLFn(ctx, enclaveName, serviceName, portID)
}

func (f *FakeOrchestrator) InspectService(ctx context.Context, enclaveName, serviceName string) (*enclave.ServiceInspect, error) {
	if f.InspectServiceFn == nil {
		return nil, fmt.Errorf("unexpected InspectService(%s)", serviceName)
	}
	return f.InspectServiceFn(ctx, enclaveName, serviceName)
}
