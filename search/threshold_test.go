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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemaseek/schemaseek/core"
)

func TestAdaptiveCutoffFewResults(t *testing.T) {
	assert.Equal(t, permissiveCutoff, adaptiveCutoff(nil, 5, core.IntentGeneral))
	assert.Equal(t, permissiveCutoff, adaptiveCutoff([]float64{0.9, 0.8}, 5, core.IntentGeneral))
}

func TestAdaptiveCutoffStandoutTightens(t *testing.T) {
	standout := []float64{0.9, 0.5, 0.45, 0.4}
	flat := []float64{0.52, 0.5, 0.45, 0.4}

	tight := adaptiveCutoff(standout, 5, core.IntentGeneral)
	loose := adaptiveCutoff(flat, 5, core.IntentGeneral)

	assert.GreaterOrEqual(t, tight, loose,
		"a larger first/second gap must never loosen the cutoff")
}

func TestAdaptiveCutoffClamped(t *testing.T) {
	low := []float64{0.10, 0.09, 0.08, 0.07}
	cutoff := adaptiveCutoff(low, 5, core.IntentGeneral)
	assert.GreaterOrEqual(t, cutoff, cutoffFloor)

	high := []float64{0.99, 0.98, 0.97, 0.96}
	cutoff = adaptiveCutoff(high, 5, core.IntentGeneral)
	assert.LessOrEqual(t, cutoff, cutoffCeil)
}

func TestAdaptiveCutoffValidationRelaxes(t *testing.T) {
	scores := []float64{0.6, 0.55, 0.5, 0.45}

	general := adaptiveCutoff(scores, 5, core.IntentGeneral)
	validation := adaptiveCutoff(scores, 5, core.IntentValidation)

	assert.Less(t, validation, general)
	assert.InDelta(t, general-validationRelax, validation, 1e-9)
}

func TestAdaptiveCutoffWindowsTopScores(t *testing.T) {
	// Only the top 2*topK scores feed the statistics, so trailing noise
	// cannot drag the cutoff down.
	scores := []float64{0.8, 0.78, 0.76, 0.74}
	withNoise := append(append([]float64{}, scores...), 0.01, 0.01, 0.01, 0.01)

	assert.Equal(t,
		adaptiveCutoff(scores, 2, core.IntentGeneral),
		adaptiveCutoff(withNoise, 2, core.IntentGeneral))
}

func TestApplyCutoffPreservesOrder(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.4},
		{ChunkID: "c", Score: 0.8},
	}
	kept := applyCutoff(candidates, 0.5)

	assert.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ChunkID)
	assert.Equal(t, "c", kept[1].ChunkID)
}
