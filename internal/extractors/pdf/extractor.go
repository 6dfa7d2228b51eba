// Package pdf extracts text from PDF documents without external tooling.
//
// The extractor walks content streams, inflating Flate-compressed ones,
// and collects string literals from text-showing operators. It handles
// the common text-PDF case; scanned or image-only PDFs yield no text and
// are rejected as corrupt input.
package pdf

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var (
	pdfMagic    = []byte("%PDF")
	streamStart = []byte("stream")
	streamEnd   = []byte("endstream")
)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/pdf",
		"application/x-pdf",
	}
}

// Extract returns one segment per content stream that carries text.
// Input without the PDF signature, or with no extractable text at all,
// fails with domain.ErrCorruptInput.
func (e *Extractor) Extract(ctx context.Context, content []byte) ([]domain.Segment, error) {
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, fmt.Errorf("missing %%PDF signature: %w", domain.ErrCorruptInput)
	}

	var segments []domain.Segment
	rest := content

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stream, remaining, ok := nextStream(rest)
		if !ok {
			break
		}
		rest = remaining

		text := extractText(inflate(stream))
		if text == "" {
			continue
		}

		segments = append(segments, domain.Segment{
			Index: len(segments),
			Text:  text,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no extractable text: %w", domain.ErrCorruptInput)
	}

	return segments, nil
}

// nextStream returns the body of the next stream ... endstream object and
// the data following it.
func nextStream(data []byte) (stream, rest []byte, ok bool) {
	start := bytes.Index(data, streamStart)
	if start < 0 {
		return nil, nil, false
	}
	body := data[start+len(streamStart):]

	// The stream keyword is followed by CRLF or LF.
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	end := bytes.Index(body, streamEnd)
	if end < 0 {
		return nil, nil, false
	}

	return body[:end], body[end+len(streamEnd):], true
}

// inflate decompresses a Flate stream body, returning the input unchanged
// when it is not zlib data.
func inflate(stream []byte) []byte {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return stream
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil && len(out) == 0 {
		return stream
	}
	return out
}

// extractText collects parenthesised string literals from a content
// stream, honouring backslash escapes and nested parentheses.
func extractText(stream []byte) string {
	var sb strings.Builder
	depth := 0
	escape := false

	for i := 0; i < len(stream); i++ {
		c := stream[i]

		if escape {
			if depth > 0 {
				switch c {
				case 'n':
					sb.WriteByte('\n')
				case 'r':
					sb.WriteByte('\r')
				case 't':
					sb.WriteByte('\t')
				default:
					sb.WriteByte(c)
				}
			}
			escape = false
			continue
		}

		if c == '\\' {
			escape = true
			continue
		}

		switch {
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth > 0 {
				sb.WriteByte(c)
			} else if depth == 0 {
				sb.WriteByte(' ')
			}
			if depth < 0 {
				depth = 0
			}
		case depth > 0:
			if printable(c) {
				sb.WriteByte(c)
			}
		}
	}

	return strings.TrimSpace(sb.String())
}

// printable filters control bytes that occasionally appear inside
// literals of binary streams misdetected as text.
func printable(c byte) bool {
	return c == '\n' || c == '\t' || c >= 0x20
}
