// Package ffmpeg wraps the external decode and probe tools used by the
// transcription pipeline: audio extraction to mono 16kHz WAV, and media
// duration probing for quota admission.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filety/scribe/cleanup"
	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/logger"
	"github.com/filety/scribe/media"
	"github.com/filety/scribe/process"
)

// Extractor converts a video source into a mono 16kHz WAV source by invoking
// ffmpeg as a subprocess. Extraction failures are deterministic (corrupt or
// unsupported containers) and are never retried.
type Extractor struct {
	// Binary is the ffmpeg executable.
	Binary string
	// ScratchDir is where intermediate inputs and the WAV output are written.
	ScratchDir string
	// MemoryLimit re-applies the receiver's spillover threshold to the
	// extracted WAV, so downstream stages see one uniform routing rule.
	MemoryLimit int64

	Log *logger.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(binary, scratchDir string, memoryLimit int64, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{
		Binary:      binary,
		ScratchDir:  scratchDir,
		MemoryLimit: memoryLimit,
		Log:         log.WithComponent("extractor"),
	}
}

// Extract decodes src into a fresh WAV source. Every intermediate file is
// tracked in scope the moment it is created, before ffmpeg runs, so a failed
// extraction leaves nothing behind once the scope is released.
func (e *Extractor) Extract(ctx context.Context, src *media.Source, scope *cleanup.Scope) (*media.Source, error) {
	inputPath := src.Path()
	if src.Kind() == media.KindMemory {
		// The external tool needs a real file.
		path, err := e.bufferToDisk(src, scope)
		if err != nil {
			return nil, err
		}
		inputPath = path
	}

	out, err := os.CreateTemp(e.ScratchDir, "extract-*.wav")
	if err != nil {
		return nil, apperrors.StorageFailed(err)
	}
	outPath := out.Name()
	out.Close()
	scope.Track(outPath)

	result, err := process.Run(ctx, process.Command{
		Binary: e.Binary,
		Args: []string{
			"-y",
			"-i", inputPath,
			"-vn",
			"-ac", "1",
			"-ar", "16000",
			"-f", "wav",
			outPath,
		},
	})
	if err != nil {
		reason := fmt.Sprintf("%s exited with code %d", e.Binary, exitCode(result))
		if diag := stderrTail(result); diag != "" {
			reason += ": " + diag
		}
		return nil, apperrors.ExtractionFailed(reason, err)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return nil, apperrors.ExtractionFailed("decode produced no output", err)
	}

	e.Log.Debug("audio extracted", logger.Fields(
		logger.FieldPath, outPath,
		logger.FieldSizeBytes, info.Size(),
		logger.FieldDuration, result.Duration.Milliseconds(),
	))

	// Same size-routing rule as the receiver: small WAVs go back to memory.
	if info.Size() <= e.MemoryLimit {
		data, err := os.ReadFile(outPath)
		if err != nil {
			return nil, apperrors.StorageFailed(err)
		}
		return media.NewMemorySource(data, "audio/wav", wavName(src.Filename)), nil
	}
	return media.NewDiskSource(outPath, info.Size(), "audio/wav", wavName(src.Filename)), nil
}

// bufferToDisk writes a memory-backed video to a tracked scratch file.
func (e *Extractor) bufferToDisk(src *media.Source, scope *cleanup.Scope) (string, error) {
	suffix := filepath.Ext(src.Filename)
	if suffix == "" {
		suffix = ".mp4"
	}
	f, err := os.CreateTemp(e.ScratchDir, "extract-in-*"+suffix)
	if err != nil {
		return "", apperrors.StorageFailed(err)
	}
	path := f.Name()
	scope.Track(path)
	defer f.Close()

	if _, err := f.Write(src.Bytes()); err != nil {
		return "", apperrors.StorageFailed(err)
	}
	return path, nil
}

func wavName(original string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "audio"
	}
	return base + ".wav"
}

func exitCode(r *process.Result) int {
	if r == nil {
		return -1
	}
	return r.ExitCode
}

func stderrTail(r *process.Result) string {
	if r == nil {
		return ""
	}
	s := strings.TrimSpace(string(r.Stderr))
	if len(s) > 200 {
		s = s[len(s)-200:]
	}
	return s
}
