// ABOUTME: ChunkPlanner estimates a first chunk length from a compression ratio
// ABOUTME: The estimate is a heuristic; the split validator re-checks every piece
package core

import "unicode/utf8"

const (
	// PlanningMargin is the share of the budget a planned chunk aims for,
	// leaving room for compression variance between pieces.
	PlanningMargin = 0.7

	// MinPlannedChars is the smallest chunk length the planner proposes
	MinPlannedChars = 50000
)

// EstimateChunkChars returns the character length of the first splitting
// attempt for text whose one-shot archive is compressedSize bytes.
func EstimateChunkChars(text string, compressedSize, maxBytes int) int {
	return estimateChunkChars(utf8.RuneCountInString(text), compressedSize, maxBytes)
}

func estimateChunkChars(textChars, compressedSize, maxBytes int) int {
	if textChars <= 0 || compressedSize <= 0 {
		return MinPlannedChars
	}

	ratio := float64(compressedSize) / float64(textChars)
	targetCompressed := int(float64(maxBytes) * PlanningMargin)
	estimated := int(float64(targetCompressed) / ratio)

	if estimated < MinPlannedChars {
		estimated = MinPlannedChars
	}
	return estimated
}
