// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/eth-fabric/fabric/internal/testutils"
)

func TestSequencerRunsStepsInOrder(t *testing.T) {
	require := testutils.SetupTest(t)

	var ran []string
	record := func(name string) Step {
		return Step{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return nil
		}}
	}

	seq := NewSequencer(zap.NewNop().Sugar(), record("first"), record("second"), record("third"))
	require.NoError(seq.Execute(context.Background()))
	require.Equal([]string{"first", "second", "third"}, ran)
}

func TestSequencerStopsAtFirstFailure(t *testing.T) {
	require := testutils.SetupTest(t)

	sentinel := errors.New("port scan failed")
	thirdRan := false
	seq := NewSequencer(zap.NewNop().Sugar(),
		Step{Name: "first", Run: func(context.Context) error { return nil }},
		Step{Name: "second", Run: func(context.Context) error { return fmt.Errorf("observing: %w", sentinel) }},
		Step{Name: "third", Run: func(context.Context) error { thirdRan = true; return nil }},
	)

	err := seq.Execute(context.Background())
	require.Error(err)
	require.False(thirdRan)
	require.ErrorIs(err, sentinel)

	var stepErr *StepError
	require.ErrorAs(err, &stepErr)
	require.Equal("second", stepErr.Step)
}

func TestSequencerSkipsWhenPredicateTrue(t *testing.T) {
	require := testutils.SetupTest(t)

	skippedRan := false
	seq := NewSequencer(zap.NewNop().Sugar(),
		Step{
			Name: "optional",
			Run:  func(context.Context) error { skippedRan = true; return nil },
			Skip: func() bool { return true },
		},
		Step{Name: "always", Run: func(context.Context) error { return nil }},
	)

	require.NoError(seq.Execute(context.Background()))
	require.False(skippedRan)
}

func TestSequencerAdvisoryFailureContinues(t *testing.T) {
	require := testutils.SetupTest(t)

	secondRan := false
	seq := NewSequencer(zap.NewNop().Sugar(),
		Step{
			Name:     "teardown",
			Run:      func(context.Context) error { return errors.New("nothing to remove") },
			Advisory: true,
		},
		Step{Name: "second", Run: func(context.Context) error { secondRan = true; return nil }},
	)

	require.NoError(seq.Execute(context.Background()))
	require.True(secondRan)
}
