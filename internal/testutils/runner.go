// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"context"
	"fmt"
	"strings"
)

// FakeRunner stands in for the orchestrator CLI in tests. Responses and
// Errors are keyed by the space-joined argument list.
type FakeRunner struct {
	Responses map[string]string
	Errors    map[string]error
	Calls     [][]string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: map[string]string{},
		Errors:    map[string]error{},
	}
}

func (r *FakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	r.Calls = append(r.Calls, args)
	key := strings.Join(args, " ")
	if err, ok := r.Errors[key]; ok {
		return nil, err
	}
	if out, ok := r.Responses[key]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("unexpected invocation: %s", key)
}

// CallCount returns how many invocations matched the given prefix.
func (r *FakeRunner) CallCount(prefix ...string) int {
	count := 0
	for _, call := range r.Calls {
		if len(call) < len(prefix) {
			continue
		}
		match := true
		for i, p := range prefix {
			if call[i] != p {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}
