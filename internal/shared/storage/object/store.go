package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lens-backend/internal/shared/util"
)

// ErrInvalidKey is returned for storage keys that would leave the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore saves and retrieves candidate files.
// Objects are grouped under a namespace, which for candidate files is the project ID.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds "<hashed namespace>/<uuid>_<sanitized name>".
func NewKey(namespace, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashNamespace(namespace), uuid.NewString()+"_"+name), nil
}

// CleanKey rejects absolute keys and keys that climb out of the root.
func CleanKey(storageKey string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "../") || clean == ".." || path.IsAbs(clean) || filepath.IsAbs(storageKey) {
		return "", ErrInvalidKey
	}
	return clean, nil
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

// Sniff reads the first 512 bytes of r to guess a MIME type and returns a
// reader that still yields the whole stream. DOCX sniffs as a zip and DOC as
// an OLE blob, so those generic answers defer to the file extension.
func Sniff(fileName string, r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	mimeType := http.DetectContentType(head[:n])
	switch strings.Split(mimeType, ";")[0] {
	case "application/zip", "application/octet-stream", "text/plain":
		if byExt, ok := extensionTypes[strings.ToLower(path.Ext(fileName))]; ok {
			mimeType = byExt
		}
	}
	return mimeType, io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// ReadAll opens storageKey and returns its full contents.
func ReadAll(ctx context.Context, store ObjectStore, storageKey string) ([]byte, error) {
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}
