package ingest

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
		want     FileType
	}{
		{name: "pdf mime", mime: "application/pdf", fileName: "cv", want: TypePDF},
		{name: "pdf mime with params", mime: "application/pdf; charset=binary", fileName: "", want: TypePDF},
		{name: "docx mime", mime: mimeDOCX, fileName: "cv.bin", want: TypeDOCX},
		{name: "doc mime", mime: "application/msword", fileName: "", want: TypeDOC},
		{name: "octet stream falls back to suffix", mime: "application/octet-stream", fileName: "Resume.DOCX", want: TypeDOCX},
		{name: "doc suffix", mime: "", fileName: "old.doc", want: TypeDOC},
		{name: "image rejected", mime: "image/png", fileName: "photo.png", want: TypeUnsupported},
		{name: "text rejected", mime: "text/plain", fileName: "notes.txt", want: TypeUnsupported},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectType(tt.mime, tt.fileName, nil); got != tt.want {
				t.Fatalf("DetectType(%q, %q) = %s, want %s", tt.mime, tt.fileName, got, tt.want)
			}
		})
	}
}

func TestDetectTypeZipArchive(t *testing.T) {
	data := buildDOCX(t, "<w:p><w:r><w:t>hello</w:t></w:r></w:p>")
	if got := DetectType("application/zip", "upload", data); got != TypeDOCX {
		t.Fatalf("expected docx for word archive, got %s", got)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("readme.txt")
	_, _ = w.Write([]byte("not a document"))
	_ = zw.Close()
	if got := DetectType("application/zip", "upload", buf.Bytes()); got != TypeUnsupported {
		t.Fatalf("expected unsupported for plain zip, got %s", got)
	}
}

func TestDetectorCheckSupported(t *testing.T) {
	if err := (Detector{}).CheckSupported("application/pdf", "cv.pdf"); err != nil {
		t.Fatalf("expected pdf supported, got %v", err)
	}
	err := (Detector{}).CheckSupported("image/jpeg", "me.jpg")
	e := AsError(err)
	if e == nil || e.Kind != KindUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}
