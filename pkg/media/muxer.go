package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lumoworks/lumo/pkg/log"
)

// Slide is one scene image shown for a fixed duration.
type Slide struct {
	ImagePath string
	Duration  int
}

// MuxInput describes one slideshow assembly run.
type MuxInput struct {
	Slides     []Slide
	AudioPath  string
	OutputPath string
	Width      int
	Height     int
	CRF        string
	WorkDir    string
}

// Muxer assembles slideshow videos by invoking ffmpeg.
type Muxer struct {
	binary string
	logger *slog.Logger
}

// NewMuxer builds a muxer around an ffmpeg binary. An empty path uses
// whatever ffmpeg resolves to on PATH.
func NewMuxer(binary string) *Muxer {
	if binary == "" {
		binary = "ffmpeg"
	}

	return &Muxer{
		binary: binary,
		logger: log.WithModule("media"),
	}
}

// concatList renders the ffmpeg concat demuxer file for the slides. The
// final image is repeated without a duration so the demuxer holds it
// until the stream ends.
func concatList(slides []Slide) string {
	var b strings.Builder

	for _, s := range slides {
		fmt.Fprintf(&b, "file '%s'\n", s.ImagePath)
		fmt.Fprintf(&b, "duration %d\n", s.Duration)
	}

	if len(slides) > 0 {
		fmt.Fprintf(&b, "file '%s'\n", slides[len(slides)-1].ImagePath)
	}

	return b.String()
}

// buildArgs produces the full ffmpeg argument list for one run.
func buildArgs(listPath string, in MuxInput) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}

	if in.AudioPath != "" {
		args = append(args, "-i", in.AudioPath)
	}

	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		"-s", strconv.Itoa(in.Width)+"x"+strconv.Itoa(in.Height),
		"-crf", in.CRF,
	)

	if in.AudioPath != "" {
		args = append(args,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:a", "aac",
			"-shortest",
		)
	}

	return append(args, in.OutputPath)
}

// Mux runs ffmpeg over the slides and writes the video to OutputPath.
func (m *Muxer) Mux(ctx context.Context, in MuxInput) error {
	if len(in.Slides) == 0 {
		return &MuxError{Stage: "prepare", Err: fmt.Errorf("no slides to assemble")}
	}

	listPath := filepath.Join(in.WorkDir, "slides.txt")
	if err := os.WriteFile(listPath, []byte(concatList(in.Slides)), 0o644); err != nil {
		return &MuxError{Stage: "prepare", Err: err}
	}

	args := buildArgs(listPath, in)

	m.logger.DebugContext(ctx, "running ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, m.binary, args...)

	var stderr strings.Builder

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &MuxError{Stage: "encode", Err: err, Output: tail(stderr.String(), 2048)}
	}

	return nil
}

// tail keeps the last n bytes of ffmpeg's stderr, where the actual
// failure reason lands.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[len(s)-n:]
}

// MuxError reports an ffmpeg assembly failure.
type MuxError struct {
	Stage  string
	Err    error
	Output string
}

func (e *MuxError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("media mux %s: %s: %s", e.Stage, e.Err, e.Output)
	}

	return fmt.Sprintf("media mux %s: %s", e.Stage, e.Err)
}

func (e *MuxError) Unwrap() error {
	return e.Err
}
