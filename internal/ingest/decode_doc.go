package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

const (
	wordStreamName = "WordDocument"
	minRunLength   = 4
)

// decodeDOC is a best-effort reader for legacy Word files. It pulls printable
// runs out of the WordDocument stream rather than interpreting the piece table,
// so formatting-heavy documents may lose text.
func decodeDOC(ctx context.Context, data []byte) (string, error) {
	return safeDecode(TypeDOC, func() (string, error) {
		doc, err := mscfb.New(bytes.NewReader(data))
		if err != nil {
			return "", newError(KindCorrupt, string(TypeDOC), err)
		}

		var stream []byte
		for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if entry.Name != wordStreamName {
				continue
			}
			stream, err = io.ReadAll(entry)
			if err != nil {
				return "", newError(KindDecoder, string(TypeDOC), err)
			}
			break
		}
		if stream == nil {
			return "", newError(KindCorrupt, string(TypeDOC), errors.New("WordDocument stream not found"))
		}

		text := bestRuns(stream)
		if strings.TrimSpace(text) == "" {
			return "", newError(KindEmpty, string(TypeDOC), nil)
		}
		return text, nil
	})
}

// bestRuns extracts printable runs as both 8-bit and UTF-16LE text and keeps
// whichever yields more letters.
func bestRuns(data []byte) string {
	narrow := filterRuns(narrowRuns(data))
	wide := filterRuns(wideRuns(data))
	if letterCount(wide) > letterCount(narrow) {
		return wide
	}
	return narrow
}

func narrowRuns(data []byte) []string {
	var runs []string
	var cur []rune
	flush := func() {
		if len(cur) >= minRunLength {
			runs = append(runs, string(cur))
		}
		cur = cur[:0]
	}
	for _, b := range data {
		r := rune(b)
		if b == '\r' || b == '\n' || b == 0x0b {
			flush()
			continue
		}
		if (b >= 0x20 && b < 0x7f) || b == '\t' {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return runs
}

func wideRuns(data []byte) []string {
	var runs []string
	var cur []uint16
	flush := func() {
		if len(cur) >= minRunLength {
			runs = append(runs, string(utf16.Decode(cur)))
		}
		cur = cur[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		r := rune(u)
		if u == '\r' || u == '\n' || u == 0x0b {
			flush()
			continue
		}
		if u < 0xd800 && (unicode.IsPrint(r) || r == '\t') {
			cur = append(cur, u)
			continue
		}
		flush()
	}
	flush()
	return runs
}

// filterRuns drops runs that are mostly symbols or digits, which are typical of
// binary structures rather than document text.
func filterRuns(runs []string) string {
	kept := make([]string, 0, len(runs))
	for _, run := range runs {
		trimmed := strings.TrimSpace(run)
		if trimmed == "" {
			continue
		}
		letters := 0
		total := 0
		for _, r := range trimmed {
			total++
			if unicode.IsLetter(r) || unicode.IsSpace(r) {
				letters++
			}
		}
		if total >= minRunLength && letters*10 >= total*6 {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
