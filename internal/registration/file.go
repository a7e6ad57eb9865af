package registration

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is an upload held by the workflow, its content is only read when it
// is sent to the backend.
type File struct {
	Name string
	Type string
	Size int64

	open func() (io.ReadCloser, error)
}

// NewFile wraps in-memory content, mimeType is taken as given.
func NewFile(name, mimeType string, content []byte) File {
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(content)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// OpenFile describes a file on disk, detecting its MIME type from content.
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("detect mime type: %w", err)
	}
	mimeType, _, _ := strings.Cut(detected.String(), ";")

	return File{
		Name: filepath.Base(path),
		Type: strings.TrimSpace(mimeType),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.Type), "image/")
}
