package media

import (
	"context"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/cleanup"
	"github.com/filety/scribe/logger"
)

// Receiver turns an incoming upload stream into a Source, buffering small
// payloads in memory and spilling large ones to a scratch file so peak memory
// stays bounded by MemoryLimit plus one copy chunk.
type Receiver struct {
	// MemoryLimit is the spillover threshold in bytes.
	MemoryLimit int64
	// ProbeChunk is the size of the first bounded read.
	ProbeChunk int64
	// CopyChunk is the buffer size used while streaming to disk.
	CopyChunk int64
	// ScratchDir is where spilled uploads are written.
	ScratchDir string

	Log *logger.Logger
}

// NewReceiver creates a Receiver with the given spillover threshold and
// scratch directory, using default chunk sizes.
func NewReceiver(memoryLimit int64, scratchDir string, log *logger.Logger) *Receiver {
	if log == nil {
		log = logger.Nop()
	}
	return &Receiver{
		MemoryLimit: memoryLimit,
		ProbeChunk:  1 << 20,
		CopyChunk:   2 << 20,
		ScratchDir:  scratchDir,
		Log:         log.WithComponent("receiver"),
	}
}

// Receive reads the upload body and produces a Source. The routing decision
// is made after a bounded probe read, so the declared length is never
// trusted. On disk spillover the scratch path is tracked in scope before any
// body bytes are written, so a failure mid-copy still cleans up.
func (r *Receiver) Receive(ctx context.Context, body io.Reader, contentType, filename string, scope *cleanup.Scope) (*Source, error) {
	probe := make([]byte, r.ProbeChunk)
	n, err := readFull(body, probe)
	if err != nil {
		return nil, apperrors.IngestFailed(err)
	}
	probe = probe[:n]

	if int64(n) < r.ProbeChunk {
		// Stream ended inside the probe chunk.
		return NewMemorySource(probe, contentType, filename), nil
	}

	if int64(n) > r.MemoryLimit {
		// The probe alone crossed the threshold.
		return r.spill(ctx, probe, body, contentType, filename, scope)
	}

	// Keep reading into memory until the payload either ends or crosses the
	// threshold. One extra byte distinguishes "exactly at the limit" from
	// "over it".
	rest := make([]byte, r.MemoryLimit-int64(n)+1)
	m, err := readFull(body, rest)
	if err != nil {
		return nil, apperrors.IngestFailed(err)
	}
	buffered := append(probe, rest[:m]...)

	if int64(len(buffered)) <= r.MemoryLimit {
		return NewMemorySource(buffered, contentType, filename), nil
	}

	return r.spill(ctx, buffered, body, contentType, filename, scope)
}

// spill streams the buffered prefix plus the remaining body to a uniquely
// named scratch file.
func (r *Receiver) spill(ctx context.Context, prefix []byte, body io.Reader, contentType, filename string, scope *cleanup.Scope) (*Source, error) {
	suffix := filepath.Ext(filename)
	if suffix == "" {
		suffix = ".tmp"
	}

	f, err := os.CreateTemp(r.ScratchDir, "upload-*"+suffix)
	if err != nil {
		return nil, apperrors.StorageFailed(err)
	}
	path := f.Name()
	scope.Track(path)
	defer f.Close()

	total := int64(0)
	if _, err := f.Write(prefix); err != nil {
		return nil, apperrors.StorageFailed(err)
	}
	total += int64(len(prefix))

	chunk := make([]byte, r.CopyChunk)
	for {
		if ctx.Err() != nil {
			return nil, apperrors.IngestFailed(ctx.Err())
		}
		n, rerr := body.Read(chunk)
		if n > 0 {
			if _, werr := f.Write(chunk[:n]); werr != nil {
				return nil, apperrors.StorageFailed(werr)
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, apperrors.IngestFailed(rerr)
		}
	}

	if err := f.Sync(); err != nil {
		return nil, apperrors.StorageFailed(err)
	}

	r.Log.Debug("upload spilled to scratch file", logger.Fields(
		logger.FieldPath, path,
		logger.FieldSizeBytes, total,
	))
	return NewDiskSource(path, total, contentType, filename), nil
}

// readFull reads until buf is full or the stream ends. A clean EOF is not an
// error; a transport failure is.
func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}
