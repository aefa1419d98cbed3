package ingest

import (
	"bytes"
	"context"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

func decodePDF(ctx context.Context, data []byte) (string, error) {
	return safeDecode(TypePDF, func() (string, error) {
		if len(data) == 0 {
			return "", newError(KindCorrupt, string(TypePDF), nil)
		}
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", newError(KindCorrupt, string(TypePDF), err)
		}

		var b strings.Builder
		for i := 1; i <= r.NumPage(); i++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			for _, line := range pageLines(page.Content().Text) {
				b.WriteString(line)
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
		return b.String(), nil
	})
}

// pageLines rebuilds text lines from positioned glyphs. Glyphs stay in content
// stream order; a baseline change starts a new line and a horizontal jump wider
// than a quarter of the font size becomes a space.
func pageLines(glyphs []pdf.Text) []string {
	var (
		lines []string
		cur   strings.Builder
		prev  *pdf.Text
	)
	flush := func() {
		if line := strings.TrimSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}
	for i := range glyphs {
		g := &glyphs[i]
		if g.S == "" {
			continue
		}
		if prev != nil {
			size := math.Max(math.Abs(g.FontSize), 1)
			switch {
			case math.Abs(g.Y-prev.Y) > size*0.3:
				flush()
			case g.X-(prev.X+prev.W) > size*0.25 && prev.S != " " && g.S != " ":
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return lines
}
