// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package artifacts discovers validator keystore artifacts by naming
// convention and consolidates their key and secret material into two flat
// output directories.
package artifacts

import (
	"regexp"
	"strconv"
)

// Validator keystore artifacts are named
// {index}-{clClient}-{elClient}-{startValidator}-{endValidator},
// e.g. "1-lighthouse-geth-0-63". The grammar is authoritative: anything
// else in the enclave is someone else's artifact.
var artifactPattern = regexp.MustCompile(`^(\d+)-([a-z0-9]+)-([a-z0-9]+)-(\d+)-(\d+)$`)

// KeyRange identifies one keystore artifact parsed from the naming grammar.
type KeyRange struct {
	ArtifactName   string
	Index          int
	CLClient       string
	ELClient       string
	StartValidator int
	EndValidator   int
}

// Validators returns how many validators the range covers.
func (kr KeyRange) Validators() int {
	return kr.EndValidator - kr.StartValidator + 1
}

// ParseArtifactName parses an artifact identifier against the naming
// grammar. The second return is false for non-matching names.
func ParseArtifactName(name string) (KeyRange, bool) {
	match := artifactPattern.FindStringSubmatch(name)
	if match == nil {
		return KeyRange{}, false
	}
	index, _ := strconv.Atoi(match[1])
	start, _ := strconv.Atoi(match[4])
	end, _ := strconv.Atoi(match[5])
	if end < start {
		return KeyRange{}, false
	}
	return KeyRange{
		ArtifactName:   name,
		Index:          index,
		CLClient:       match[2],
		ELClient:       match[3],
		StartValidator: start,
		EndValidator:   end,
	}, true
}

// MatchArtifacts filters artifact names through the grammar, preserving order.
func MatchArtifacts(names []string) []KeyRange {
	var ranges []KeyRange
	for _, name := range names {
		if kr, ok := ParseArtifactName(name); ok {
			ranges = append(ranges, kr)
		}
	}
	return ranges
}
