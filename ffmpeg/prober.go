package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/media"
	"github.com/filety/scribe/process"
)

// Prober reports media duration in seconds using ffprobe. Admission control
// fails closed: any probe failure rejects the job.
type Prober struct {
	// Binary is the ffprobe executable.
	Binary string
}

// NewProber creates a Prober.
func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

// Duration probes src and returns its duration in seconds. Disk sources are
// probed by path; memory sources are piped through stdin. A negative or
// unparsable result is a failure, not a zero.
func (p *Prober) Duration(ctx context.Context, src *media.Source) (float64, error) {
	cmd := process.Command{
		Binary: p.Binary,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
		},
	}
	if src.Kind() == media.KindDisk {
		cmd.Args = append(cmd.Args, src.Path())
	} else {
		cmd.Args = append(cmd.Args, "pipe:0")
		cmd.Stdin = bytes.NewReader(src.Bytes())
	}

	result, err := process.Run(ctx, cmd)
	if err != nil {
		return 0, apperrors.DurationUnavailable(err)
	}

	raw := strings.TrimSpace(string(result.Stdout))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.DurationUnavailable(fmt.Errorf("unparsable duration %q", raw))
	}
	if seconds < 0 {
		return 0, apperrors.DurationUnavailable(fmt.Errorf("negative duration %f", seconds))
	}
	return seconds, nil
}
