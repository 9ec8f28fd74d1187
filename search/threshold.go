// Copyright 2025 Schemaseek Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"math"

	"github.com/schemaseek/schemaseek/core"
)

const (
	// permissiveCutoff is used when the result set is too small for
	// statistics to mean anything.
	permissiveCutoff = 0.25

	// cutoffFloor and cutoffCeil bound every computed cutoff.
	cutoffFloor = 0.15
	cutoffCeil  = 0.65

	// standoutGap is the 1st/2nd score gap beyond which one result is
	// treated as a standout and the cutoff tightens.
	standoutGap = 0.12

	tightStddevFactor = 0.3
	looseStddevFactor = 0.8

	// validationRelax loosens the cutoff for validation questions, whose
	// answers live in sparse comment-heavy chunks.
	validationRelax = 0.10
)

// adaptiveCutoff computes the minimum semantic score a candidate must reach
// to survive thresholding. Scores must be sorted descending.
func adaptiveCutoff(scores []float64, topK int, intent core.Intent) float64 {
	var cutoff float64

	if len(scores) < 3 {
		cutoff = permissiveCutoff
	} else {
		window := scores
		if max := 2 * topK; max > 0 && len(window) > max {
			window = window[:max]
		}
		mean, stddev := meanStddev(window)

		if scores[0]-scores[1] > standoutGap {
			cutoff = mean - tightStddevFactor*stddev
		} else {
			cutoff = mean - looseStddevFactor*stddev
		}
		cutoff = clamp(cutoff, cutoffFloor, cutoffCeil)
	}

	if intent == core.IntentValidation {
		cutoff -= validationRelax
	}
	return cutoff
}

// applyCutoff keeps the candidates at or above the cutoff, preserving order.
func applyCutoff(candidates []*core.ScoredCandidate, cutoff float64) []*core.ScoredCandidate {
	kept := make([]*core.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= cutoff {
			kept = append(kept, c)
		}
	}
	return kept
}

func meanStddev(scores []float64) (float64, float64) {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))
	return mean, math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
