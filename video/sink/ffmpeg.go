package sink

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"chromakey/video/chroma"
)

type FFmpegOptions struct {
	// Path to the ffmpeg binary.
	Binary string
	Size   image.Point
	FPS    int
}

// FFmpegSink records the composited output to a video file by piping raw
// RGBA frames into ffmpeg.
type FFmpegSink struct {
	path string
	opts FFmpegOptions

	cmd  *exec.Cmd
	pipe io.WriteCloser
}

func NewFFmpegSink(path string, opts FFmpegOptions) (*FFmpegSink, error) {
	c := exec.Command(
		opts.Binary,
		"-y",
		// Read raw frames from stdin.
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
		// Reasonable quality at low CPU cost. Adjust "preset" if the system
		// cannot keep up.
		"-c:v", "libx264",
		"-preset", "superfast",
		"-crf", "28",
		"-pix_fmt", "yuv420p",
		// Allow playback in the browser before the download completes.
		"-movflags", "+faststart",
		path,
	)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	pipe, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	log.Infof("Recording output to %v", path)
	return &FFmpegSink{
		path: path,
		opts: opts,
		cmd:  c,
		pipe: pipe,
	}, nil
}

func (s *FFmpegSink) Present(f *chroma.Frame) error {
	if f.Width != s.opts.Size.X || f.Height != s.opts.Size.Y {
		return fmt.Errorf("%w: recording %dx%d, got %dx%d", chroma.ErrSizeMismatch,
			s.opts.Size.X, s.opts.Size.Y, f.Width, f.Height)
	}
	if _, err := s.pipe.Write(f.Pix); err != nil {
		return fmt.Errorf("writing to ffmpeg: %w", err)
	}
	return nil
}

func (s *FFmpegSink) Close() {
	s.pipe.Close()
	log.Infof("Waiting for FFmpeg shutdown.")
	err := s.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Warnf("FFmpeg exit with status %v", err)
		return
	}
	log.Infof("Recording to %v finished (%v)", s.path, err)
}
