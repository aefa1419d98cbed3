package ingest

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

func decodeDOCX(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return safeDecode(TypeDOCX, func() (string, error) {
		if len(data) == 0 {
			return "", newError(KindCorrupt, string(TypeDOCX), nil)
		}
		doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", newError(KindCorrupt, string(TypeDOCX), err)
		}
		defer doc.Close()

		text, err := documentText(doc.Editable().GetContent())
		if err != nil {
			return "", newError(KindDecoder, string(TypeDOCX), err)
		}
		return text, nil
	})
}

// documentText flattens WordprocessingML into text. Paragraphs end lines, so
// table cells come out one per line in reading order.
func documentText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteString("\t")
			case "br", "cr":
				buf.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
