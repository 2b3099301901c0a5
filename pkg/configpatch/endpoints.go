// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configpatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
	"go.uber.org/zap"
)

// FieldKind says how a mapped field embeds its port.
type FieldKind int

const (
	// ScalarPort fields hold the port as a bare integer assignment.
	ScalarPort FieldKind = iota
	// URLPort fields hold a quoted URL whose port component is rewritten
	// in place, scheme, host and path preserved.
	URLPort
)

// PortMapping binds one observed service port to one document field.
type PortMapping struct {
	Service  string
	PortID   string
	Document string // file name under the config dir
	Field    string
	Kind     FieldKind
}

// DefaultPortMappings covers both deployment targets.
func DefaultPortMappings() []PortMapping {
	return []PortMapping{
		{Service: constants.BeaconServiceName, PortID: constants.HTTPPortID, Document: constants.FabricConfigFileName, Field: "beacon_port", Kind: ScalarPort},
		{Service: constants.ExecutionServiceName, PortID: constants.RPCPortID, Document: constants.FabricConfigFileName, Field: "execution_client_port", Kind: ScalarPort},
		{Service: constants.RelayServiceName, PortID: constants.HTTPPortID, Document: constants.FabricConfigFileName, Field: "downstream_relay_port", Kind: ScalarPort},
		{Service: constants.BuilderBeaconServiceName, PortID: constants.HTTPPortID, Document: constants.RbuilderConfigFileName, Field: "cl_node_url", Kind: URLPort},
	}
}

// Result reports one mapping's outcome.
type Result struct {
	Mapping PortMapping
	Port    uint16
	Skipped bool
}

// Extractor observes live port assignments and rewrites config documents.
type Extractor struct {
	orchestrator enclave.Orchestrator
	log          *zap.SugaredLogger
}

func NewExtractor(orchestrator enclave.Orchestrator, log *zap.SugaredLogger) *Extractor {
	return &Extractor{orchestrator: orchestrator, log: log}
}

// ExtractAndPatch queries each mapping's live port and rewrites the owning
// document field. A mapping whose service or port has no live assignment is
// skipped with a warning and its field left untouched. Each document is
// written once, with its previous content at a .bak sibling. Running twice
// against an unchanged cluster produces byte-identical documents.
func (e *Extractor) ExtractAndPatch(ctx context.Context, enclaveName, configDir string, mappings []PortMapping) ([]Result, error) {
	results := make([]Result, 0, len(mappings))
	for _, m := range mappings {
		assignment, err := e.orchestrator.PortURL(ctx, enclaveName, m.Service, m.PortID)
		if err != nil {
			ux.Logger.Warn("no live assignment for %s/%s, leaving %s untouched: %s", m.Service, m.PortID, m.Field, err)
			results = append(results, Result{Mapping: m, Skipped: true})
			continue
		}
		port, err := parsePort(assignment)
		if err != nil {
			return nil, fmt.Errorf("unexpected port assignment for %s/%s: %w", m.Service, m.PortID, err)
		}
		e.log.Debugf("observed %s/%s at port %d", m.Service, m.PortID, port)
		results = append(results, Result{Mapping: m, Port: port})
	}

	if err := e.patchDocuments(configDir, results); err != nil {
		return nil, err
	}

	e.report(results)
	return results, nil
}

// patchDocuments applies the observed ports document by document, in
// mapping order, writing each document exactly once.
func (e *Extractor) patchDocuments(configDir string, results []Result) error {
	var docOrder []string
	applied := map[string][]Result{}
	for _, r := range results {
		if r.Skipped {
			continue
		}
		if _, seen := applied[r.Mapping.Document]; !seen {
			docOrder = append(docOrder, r.Mapping.Document)
		}
		applied[r.Mapping.Document] = append(applied[r.Mapping.Document], r)
	}

	for _, doc := range docOrder {
		path := filepath.Join(configDir, doc)
		data, err := os.ReadFile(path) //nolint:gosec // G304: Patching operator-supplied config
		if err != nil {
			return fmt.Errorf("%w: config document: %v", constants.ErrPreconditionMissing, err)
		}
		for _, r := range applied[doc] {
			switch r.Mapping.Kind {
			case URLPort:
				data, err = replaceURLPort(data, r.Mapping.Field, r.Port)
			default:
				data, err = replaceScalarPort(data, r.Mapping.Field, r.Port)
			}
			if err != nil {
				return fmt.Errorf("patching %s: %w", path, err)
			}
		}
		if err := validateTOML(data, path); err != nil {
			return err
		}
		if err := utils.WriteFileWithBackup(path, data); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) report(results []Result) {
	var rows [][]string
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		rows = append(rows, []string{
			r.Mapping.Service,
			r.Mapping.PortID,
			strconv.FormatUint(uint64(r.Port), 10),
			r.Mapping.Field,
		})
	}
	ux.PrintPortTable(rows)
	if skipped > 0 {
		ux.Logger.PrintToUser("Rewrote %d fields, skipped %d without live assignments", len(rows), skipped)
	} else {
		ux.Logger.PrintToUser("Rewrote %d fields", len(rows))
	}
}

func parsePort(assignment string) (uint16, error) {
	_, portStr, err := enclave.SplitHostPort(assignment)
	if err != nil {
		return 0, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("port %q out of range: %w", portStr, err)
	}
	return uint16(port), nil
}

// replaceScalarPort rewrites the single `field = <value>` assignment,
// keeping indentation and trailing whitespace.
func replaceScalarPort(text []byte, field string, port uint16) ([]byte, error) {
	pattern, err := regexp.Compile(fmt.Sprintf(`(?m)^(\s*%s\s*=\s*)(.*?)(\s*)$`, regexp.QuoteMeta(field)))
	if err != nil {
		return nil, err
	}
	matches := pattern.FindAllSubmatchIndex(text, -1)
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: field %s", constants.ErrPatchTargetAbsent, field)
	case len(matches) > 1:
		return nil, fmt.Errorf("%w: field %s assigned %d times", constants.ErrPatchTargetAmbiguous, field, len(matches))
	}

	m := matches[0]
	var out bytes.Buffer
	out.Write(text[:m[3]])
	out.WriteString(strconv.FormatUint(uint64(port), 10))
	out.Write(text[m[5]:])
	return out.Bytes(), nil
}

var urlSplitPattern = regexp.MustCompile(`^(https?://)([^/]+)(/.*)?$`)

var portSuffixPattern = regexp.MustCompile(`:\d+$`)

// replaceURLPort rewrites the port component of the single quoted URL
// assigned to field.
func replaceURLPort(text []byte, field string, port uint16) ([]byte, error) {
	pattern, err := regexp.Compile(fmt.Sprintf(`(?m)^(\s*%s\s*=\s*")([^"]+)(")\s*$`, regexp.QuoteMeta(field)))
	if err != nil {
		return nil, err
	}
	matches := pattern.FindAllSubmatchIndex(text, -1)
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: field %s", constants.ErrPatchTargetAbsent, field)
	case len(matches) > 1:
		return nil, fmt.Errorf("%w: field %s assigned %d times", constants.ErrPatchTargetAmbiguous, field, len(matches))
	}

	m := matches[0]
	rewritten, err := rewriteURLPort(string(text[m[4]:m[5]]), port)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}

	var out bytes.Buffer
	out.Write(text[:m[3]])
	out.WriteString(rewritten)
	out.Write(text[m[5]:])
	return out.Bytes(), nil
}

func rewriteURLPort(url string, port uint16) (string, error) {
	m := urlSplitPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("not an http(s) URL: %s", url)
	}
	scheme, authority, rest := m[1], m[2], m[3]
	authority = portSuffixPattern.ReplaceAllString(authority, "")
	return fmt.Sprintf("%s%s:%d%s", scheme, authority, port, rest), nil
}
