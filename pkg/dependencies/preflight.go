// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package dependencies

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/shirou/gopsutil/process"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// versionCommand is a variable for testing purposes to allow mocking the CLI call
var versionCommand = func(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "version").CombinedOutput()
	return string(out), err
}

// CheckOrchestratorInstalled verifies the cluster orchestrator binary is
// reachable and returns its reported version (with leading v).
func CheckOrchestratorInstalled(ctx context.Context, binPath string) (string, error) {
	resolved, err := exec.LookPath(binPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found on PATH", constants.ErrPreconditionMissing, binPath)
	}
	out, err := versionCommand(ctx, resolved)
	if err != nil {
		return "", fmt.Errorf("failed querying %s version: %w", binPath, err)
	}
	raw := versionPattern.FindString(out)
	if raw == "" {
		return "", fmt.Errorf("could not parse a version from %s output %q", binPath, strings.TrimSpace(out))
	}
	return "v" + raw, nil
}

// CheckVersionIsOverMin rejects orchestrator versions below the supported minimum.
func CheckVersionIsOverMin(version string) error {
	if !semver.IsValid(version) {
		return fmt.Errorf("invalid orchestrator version %q", version)
	}
	if semver.Compare(version, constants.MinKurtosisVersion) == -1 {
		return fmt.Errorf(
			"minimum supported %s version is %s, found %s",
			constants.KurtosisBinName, constants.MinKurtosisVersion, version,
		)
	}
	return nil
}

// processList is a variable for testing purposes to allow mocking the OS scan
var processList = func() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// CheckDockerRunning verifies a Docker engine daemon is present in the
// OS process list. Activation cannot work without one.
func CheckDockerRunning() error {
	names, err := processList()
	if err != nil {
		return err
	}
	for _, name := range names {
		if strings.HasPrefix(name, "dockerd") || name == "com.docker.backend" {
			return nil
		}
	}
	return fmt.Errorf("%w: docker engine is not running", constants.ErrPreconditionMissing)
}

// Preflight runs every environment check required before the cluster phase.
func Preflight(ctx context.Context, kurtosisPath string) error {
	version, err := CheckOrchestratorInstalled(ctx, kurtosisPath)
	if err != nil {
		return err
	}
	if err := CheckVersionIsOverMin(version); err != nil {
		return err
	}
	return CheckDockerRunning()
}
