// Package media handles upload ingestion: it routes payloads between memory
// and scratch disk based on size and classifies sources by media kind.
package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Kind says where the payload of a Source lives.
type Kind string

const (
	// KindMemory means the payload is buffered in memory.
	KindMemory Kind = "memory"
	// KindDisk means the payload lives in a scratch file.
	KindDisk Kind = "disk"
)

// Source is a single uploaded media payload. Exactly one representation is
// active: either the in-memory buffer or the scratch-file path.
type Source struct {
	// ContentType is the declared MIME type of the upload.
	ContentType string
	// Filename is the declared original filename, if any.
	Filename string
	// Size is the payload length in bytes.
	Size int64

	kind Kind
	data []byte
	path string
}

// NewMemorySource creates a memory-backed source.
func NewMemorySource(data []byte, contentType, filename string) *Source {
	return &Source{
		ContentType: contentType,
		Filename:    filename,
		Size:        int64(len(data)),
		kind:        KindMemory,
		data:        data,
	}
}

// NewDiskSource creates a disk-backed source. The caller is responsible for
// tracking path with a cleanup scope.
func NewDiskSource(path string, size int64, contentType, filename string) *Source {
	return &Source{
		ContentType: contentType,
		Filename:    filename,
		Size:        size,
		kind:        KindDisk,
		path:        path,
	}
}

// Kind returns where the payload lives.
func (s *Source) Kind() Kind { return s.kind }

// Path returns the scratch-file path for disk sources, empty otherwise.
func (s *Source) Path() string { return s.path }

// Bytes returns the in-memory payload for memory sources, nil otherwise.
func (s *Source) Bytes() []byte { return s.data }

// Open returns a fresh seekable reader over the payload. Callers that may
// have consumed a previous reader must Open again or Seek to the start.
func (s *Source) Open() (io.ReadSeekCloser, error) {
	switch s.kind {
	case KindMemory:
		return nopSeekCloser{bytes.NewReader(s.data)}, nil
	case KindDisk:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("media: open source: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("media: source has no active representation")
	}
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
