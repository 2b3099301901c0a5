// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "errors"

// Fatal pipeline conditions. Callers wrap these with %w so the sequencer
// can classify failures with errors.Is regardless of which layer raised them.
var (
	ErrPreconditionMissing  = errors.New("required service or endpoint not found")
	ErrNoValidatorArtifacts = errors.New("no validator key artifacts matched the naming grammar")
	ErrPatchTargetAbsent    = errors.New("config patch target not found in document")
	ErrPatchTargetAmbiguous = errors.New("config patch target matched more than one location")
	ErrTransferFailed       = errors.New("artifact transfer failed")
	ErrResolutionIncomplete = errors.New("peer resolution yielded incomplete identity")
)
