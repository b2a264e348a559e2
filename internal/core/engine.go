// ABOUTME: Engine runs the write path (compress, plan, split, assemble)
// ABOUTME: and the read path (reassemble) for one size budget
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jerbio/BigDataTiler/internal/models"
)

// Engine splits logs into chunks that each compress within maxBytes.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	maxBytes  int
	assembler *GroupAssembler
	logger    *slog.Logger
}

// NewEngine creates an engine for a per-chunk budget of maxBytes. A nil
// logger discards output.
func NewEngine(maxBytes int, logger *slog.Logger) (*Engine, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be positive, got %d", maxBytes)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		maxBytes:  maxBytes,
		assembler: NewGroupAssembler(nil),
		logger:    logger,
	}, nil
}

// WithIDFunc returns a copy of the engine that names chunks with idFunc
func (e *Engine) WithIDFunc(idFunc IDFunc) *Engine {
	clone := *e
	clone.assembler = NewGroupAssembler(idFunc)
	return &clone
}

// MaxBytes returns the per-chunk budget
func (e *Engine) MaxBytes() int {
	return e.maxBytes
}

// ToChunks compresses text and splits it into as many chunks as needed to
// keep every payload within the budget. The returned group is complete
// and ready to persist.
func (e *Engine) ToChunks(text string, meta models.LogMeta) ([]*models.LogChange, error) {
	if !utf8.ValidString(text) {
		return nil, errors.New("log text is not valid UTF-8")
	}

	compressor := NewCompressor(meta.TimeOfCreation)
	hash := ContentHash(text)

	whole, err := compressor.Compress(text)
	if err != nil {
		return nil, err
	}
	if len(whole) <= e.maxBytes {
		return e.assembler.Assemble(meta, [][]byte{whole}, hash), nil
	}

	textChars := utf8.RuneCountInString(text)
	if textChars == 0 {
		return nil, &UnrepresentableError{Size: len(whole), Limit: e.maxBytes, Floor: MinResplitChars}
	}

	chunkChars := estimateChunkChars(textChars, len(whole), e.maxBytes)
	validator := NewSplitValidator(compressor, e.maxBytes)

	validated, err := validator.ValidateAll(SplitText(text, chunkChars), chunkChars)
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, len(validated))
	for i, chunk := range validated {
		if chunk.Oversized {
			return nil, &UnrepresentableError{
				Size:  len(chunk.Payload),
				Limit: e.maxBytes,
				Floor: MinResplitChars,
				Chars: chunk.Chars,
			}
		}
		payloads[i] = chunk.Payload
	}

	group := e.assembler.Assemble(meta, payloads, hash)

	e.logger.Info("split log",
		"user_id", meta.UserID,
		"chars", textChars,
		"compressed_bytes", len(whole),
		"planned_chars", chunkChars,
		"chunks", len(group),
	)

	return group, nil
}

// Reassemble rebuilds the text of a complete group
func (e *Engine) Reassemble(chunks []*models.LogChange) (string, error) {
	return Reassemble(chunks)
}
