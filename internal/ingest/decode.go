package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Decoder turns a binary document into raw text.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (string, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, data []byte) (string, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// DefaultDecoders returns the built-in decoder per supported type.
func DefaultDecoders() map[FileType]Decoder {
	return map[FileType]Decoder{
		TypePDF:  DecoderFunc(decodePDF),
		TypeDOCX: DecoderFunc(decodeDOCX),
		TypeDOC:  DecoderFunc(decodeDOC),
	}
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// NormalizeText unifies line endings, trims trailing spaces, and collapses long blank runs.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// safeDecode converts decoder panics into decoder errors.
func safeDecode(kind FileType, fn func() (string, error)) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = newError(KindDecoder, string(kind), fmt.Errorf("panic: %v", rec))
		}
	}()
	return fn()
}
