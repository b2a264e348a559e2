// ABOUTME: SplitValidator cuts text into pieces whose archives fit the budget
// ABOUTME: Oversized pieces are re-split from a worklist with shrinking lengths
package core

import (
	"fmt"
	"unicode/utf8"
)

const (
	// ResplitMargin is applied on top of the measured overage when an
	// oversized piece is cut again.
	ResplitMargin = 1.3

	// MinResplitChars is the floor for re-split lengths. A piece this short
	// that still does not fit is reported as oversized.
	MinResplitChars = 10000
)

// ValidatedChunk is one compressed piece of the original text
type ValidatedChunk struct {
	Payload   []byte
	Chars     int
	Oversized bool
}

// SplitText partitions text into consecutive pieces of chunkChars
// characters. The last piece holds the remainder. Cuts fall on code point
// boundaries so every piece is valid UTF-8 on its own.
func SplitText(text string, chunkChars int) []string {
	if text == "" {
		return nil
	}
	if chunkChars <= 0 {
		return []string{text}
	}

	var pieces []string
	start, count := 0, 0
	for i := range text {
		if count == chunkChars {
			pieces = append(pieces, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(pieces, text[start:])
}

// SplitValidator compresses pieces and re-splits the ones over budget
type SplitValidator struct {
	compressor *Compressor
	maxBytes   int
}

// NewSplitValidator creates a validator bound to a compressor and budget
func NewSplitValidator(compressor *Compressor, maxBytes int) *SplitValidator {
	return &SplitValidator{compressor: compressor, maxBytes: maxBytes}
}

type pendingPiece struct {
	text       string
	chars      int
	chunkChars int
}

// Validate compresses chunk, re-splitting until every piece fits or reaches
// the length floor. Results are in text order.
func (v *SplitValidator) Validate(chunk string, chunkChars int) ([]ValidatedChunk, error) {
	return v.ValidateAll([]string{chunk}, chunkChars)
}

// ValidateAll validates consecutive pieces cut at chunkChars. Results are
// in text order and their texts concatenate to the pieces' concatenation.
func (v *SplitValidator) ValidateAll(pieces []string, chunkChars int) ([]ValidatedChunk, error) {
	// LIFO worklist: sub-pieces are pushed in reverse so they pop in order.
	stack := make([]pendingPiece, 0, len(pieces))
	for i := len(pieces) - 1; i >= 0; i-- {
		stack = append(stack, pendingPiece{
			text:       pieces[i],
			chars:      utf8.RuneCountInString(pieces[i]),
			chunkChars: chunkChars,
		})
	}

	var results []ValidatedChunk
	for len(stack) > 0 {
		piece := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		payload, err := v.compressor.Compress(piece.text)
		if err != nil {
			return nil, fmt.Errorf("failed to compress piece: %w", err)
		}

		if len(payload) <= v.maxBytes {
			results = append(results, ValidatedChunk{Payload: payload, Chars: piece.chars})
			continue
		}

		if piece.chars <= MinResplitChars {
			results = append(results, ValidatedChunk{Payload: payload, Chars: piece.chars, Oversized: true})
			continue
		}

		next := NextChunkChars(piece.chunkChars, piece.chars, len(payload), v.maxBytes)
		subPieces := SplitText(piece.text, next)
		for i := len(subPieces) - 1; i >= 0; i-- {
			stack = append(stack, pendingPiece{
				text:       subPieces[i],
				chars:      utf8.RuneCountInString(subPieces[i]),
				chunkChars: next,
			})
		}
	}

	return results, nil
}

// NextChunkChars returns the re-split length for a piece of pieceChars
// characters that compressed to compressedSize bytes. The result is below
// pieceChars whenever pieceChars is above the floor.
func NextChunkChars(chunkChars, pieceChars, compressedSize, maxBytes int) int {
	base := chunkChars
	if pieceChars < base {
		base = pieceChars
	}

	overage := float64(compressedSize) / float64(maxBytes)
	next := int(float64(base) / (overage * ResplitMargin))

	if next < MinResplitChars {
		next = MinResplitChars
	}
	return next
}
