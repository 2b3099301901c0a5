// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package enclave talks to the cluster orchestrator CLI. All state queries
// request JSON output and decode into the typed descriptors below; free-text
// output is never pattern-matched.
package enclave

// Port is one published port of a running service.
type Port struct {
	Number    uint16 `json:"number"`
	Transport string `json:"transport_protocol"`
	// MaybeURL carries the application-protocol URL when the orchestrator
	// knows one (http ports), empty otherwise.
	MaybeURL string `json:"maybe_url,omitempty"`
}

// ServiceSummary is one service entry of an enclave descriptor.
type ServiceSummary struct {
	Name   string          `json:"name"`
	UUID   string          `json:"uuid"`
	Status string          `json:"status"`
	Ports  map[string]Port `json:"ports"`
}

// ArtifactSummary is one file artifact entry of an enclave descriptor.
type ArtifactSummary struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// EnclaveInfo is the decoded enclave descriptor.
type EnclaveInfo struct {
	Name          string            `json:"name"`
	UUID          string            `json:"uuid"`
	Status        string            `json:"status"`
	Services      []ServiceSummary  `json:"services"`
	FileArtifacts []ArtifactSummary `json:"file_artifacts"`
}

// ServiceInspect is the decoded launch configuration of one service.
type ServiceInspect struct {
	Name       string            `json:"name"`
	Image      string            `json:"image"`
	Ports      map[string]Port   `json:"ports"`
	Entrypoint []string          `json:"entrypoint"`
	Cmd        []string          `json:"cmd"`
	EnvVars    map[string]string `json:"env_vars"`
}

// HasService reports whether the descriptor lists a service with the name.
func (e *EnclaveInfo) HasService(name string) bool {
	for _, svc := range e.Services {
		if svc.Name == name {
			return true
		}
	}
	return false
}

// ArtifactNames returns the names of all file artifacts in the descriptor.
func (e *EnclaveInfo) ArtifactNames() []string {
	names := make([]string, 0, len(e.FileArtifacts))
	for _, artifact := range e.FileArtifacts {
		names = append(names, artifact.Name)
	}
	return names
}
