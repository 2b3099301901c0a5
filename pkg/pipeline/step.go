// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pipeline sequences the devnet bootstrap as a fixed total order of
// named steps that run fail-fast and end in Compose activation.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eth-fabric/fabric/pkg/ux"
)

// Step is one stage of the bootstrap sequence.
type Step struct {
	// Name appears in the [i/N] marker and in the error naming a failed step.
	Name string
	// Run performs the step. Side effects must be fully committed on return;
	// later steps assume them to be durably visible.
	Run func(ctx context.Context) error
	// Skip, when set and true at execution time, bypasses the step.
	Skip func() bool
	// Advisory steps report failures as warnings and let the sequence continue.
	Advisory bool
}

// StepError names the step that aborted the sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Sequencer executes steps strictly in order on a single goroutine and
// stops at the first non-advisory failure.
type Sequencer struct {
	steps []Step
	log   *zap.SugaredLogger
}

func NewSequencer(log *zap.SugaredLogger, steps ...Step) *Sequencer {
	return &Sequencer{steps: steps, log: log}
}

func (s *Sequencer) Execute(ctx context.Context) error {
	total := len(s.steps)
	for i, step := range s.steps {
		if step.Skip != nil && step.Skip() {
			ux.Logger.PrintStepMarker(i+1, total, step.Name+" (skipped)")
			continue
		}
		ux.Logger.PrintStepMarker(i+1, total, step.Name)
		if err := step.Run(ctx); err != nil {
			if step.Advisory {
				ux.Logger.Warn("%s: %s", step.Name, err)
				continue
			}
			s.log.Errorw("pipeline aborted", "step", step.Name, "error", err)
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}
