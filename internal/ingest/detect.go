package ingest

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

// FileType is the ingestion format of a candidate file.
type FileType string

const (
	TypePDF         FileType = "pdf"
	TypeDOCX        FileType = "docx"
	TypeDOC         FileType = "doc"
	TypeUnsupported FileType = "unsupported"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeZIP  = "application/zip"
)

// DetectType classifies a file by MIME type first and filename suffix second.
// data is optional; when present it lets a generic zip payload be recognized as DOCX.
func DetectType(mimeType, fileName string, data []byte) FileType {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, "application/x-pdf":
		return TypePDF
	case mimeDOCX:
		return TypeDOCX
	case mimeDOC, "application/vnd.ms-word":
		return TypeDOC
	case mimeZIP:
		if isDOCXArchive(data) {
			return TypeDOCX
		}
	}

	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".doc":
		return TypeDOC
	default:
		return TypeUnsupported
	}
}

// Detector adapts DetectType for upload validation.
type Detector struct{}

// CheckSupported returns an unsupported-type error for anything other than pdf, docx, or doc.
func (Detector) CheckSupported(mimeType, fileName string) error {
	if DetectType(mimeType, fileName, nil) == TypeUnsupported {
		return newError(KindUnsupported, describeType(mimeType, fileName), nil)
	}
	return nil
}

func describeType(mimeType, fileName string) string {
	if m := strings.TrimSpace(mimeType); m != "" {
		return m
	}
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return "unknown"
}

func isDOCXArchive(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
