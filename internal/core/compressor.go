// ABOUTME: Compressor packs text into a single-entry zip archive and back
// ABOUTME: Entries are named after the log's creation time in epoch millis
package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/jerbio/BigDataTiler/internal/models"
)

// utf8BOM prefixes every entry. Existing archives in the store carry one and
// readers strip exactly one.
const utf8BOM = "\xef\xbb\xbf"

// Compressor produces deterministic archives for one log group. The entry
// name and timestamp come from the group's creation time.
type Compressor struct {
	entryName string
	modified  time.Time
}

// NewCompressor creates a Compressor whose entries are named after createdAt
func NewCompressor(createdAt time.Time) *Compressor {
	c := &Compressor{
		entryName: strconv.FormatUint(models.JsMillis(createdAt), 10) + ".xml",
	}
	if !createdAt.IsZero() {
		c.modified = createdAt.UTC()
	}
	return c
}

// EntryName returns the archive entry name used by this compressor
func (c *Compressor) EntryName() string {
	return c.entryName
}

// Compress returns text as the sole entry of a deflated zip archive
func (c *Compressor) Compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(text)/2 + 256)

	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     c.entryName,
		Method:   zip.Deflate,
		Modified: c.modified,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := io.WriteString(entry, utf8BOM); err != nil {
		return nil, fmt.Errorf("failed to write archive entry: %w", err)
	}
	if _, err := io.WriteString(entry, text); err != nil {
		return nil, fmt.Errorf("failed to write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	return buf.Bytes(), nil
}

// CompressedSize returns the archive size of text without keeping the bytes
func (c *Compressor) CompressedSize(text string) (int, error) {
	payload, err := c.Compress(text)
	if err != nil {
		return 0, err
	}
	return len(payload), nil
}

// Decompress returns the text stored in the first entry of an archive
func Decompress(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrCorruptArchive)
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	if len(zr.File) == 0 {
		return "", fmt.Errorf("%w: archive has no entries", ErrCorruptArchive)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: entry %s is not valid UTF-8", ErrCorruptArchive, zr.File[0].Name)
	}

	return strings.TrimPrefix(string(data), utf8BOM), nil
}
