// Package encoder pipes raw RGBA frames into an ffmpeg process.
package encoder

import (
	"context"
	"fmt"
	"io"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Frame represents a single rendered video frame's data, ready for encoding.
type Frame struct {
	Pixels []byte
	PTS    int64
}

type Settings struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // h264 or hevc
	OutputFile string
	FFMPEGPath string
	// BottomUp marks frames whose first row is the bottom of the image, as
	// glReadPixels returns them.
	BottomUp bool
}

// FrameSize is the byte length of one frame.
func (s Settings) FrameSize() int {
	return s.Width * s.Height * 4
}

// InputArgs describes the raw frames written to ffmpeg's stdin.
func InputArgs(s Settings) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", s.Width, s.Height),
		"r":       s.FPS,
	}
}

// OutputArgs selects a software encoder for s.Codec and converts to yuv420p.
func OutputArgs(s Settings) ffmpeg.KwArgs {
	outputArgs := ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}
	if s.Codec == "hevc" {
		outputArgs["c:v"] = "libx265"
		if strings.HasSuffix(s.OutputFile, ".mp4") {
			outputArgs["tag:v"] = "hvc1"
		}
	} else {
		outputArgs["c:v"] = "libx264"
	}
	if s.BottomUp {
		outputArgs["vf"] = "vflip"
	}
	return outputArgs
}

// Encoder is the consumer side of a recording: frames sent to it are written
// to ffmpeg in order.
type Encoder struct {
	settings Settings
	log      *zap.Logger
	// run executes ffmpeg reading frames from r; replaced in tests.
	run func(r io.Reader) error
}

func New(s Settings, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Encoder{settings: s, log: log}
	e.run = e.runFFmpeg
	return e
}

func (e *Encoder) runFFmpeg(r io.Reader) error {
	inputArgs, outputArgs := InputArgs(e.settings), OutputArgs(e.settings)
	e.log.Info("starting ffmpeg",
		zap.String("output", e.settings.OutputFile),
		zap.Any("codec", outputArgs["c:v"]),
		zap.Int("width", e.settings.Width),
		zap.Int("height", e.settings.Height),
		zap.Int("fps", e.settings.FPS))

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(e.settings.OutputFile, outputArgs).
		OverWriteOutput().WithInput(r).ErrorToStdOut()

	if e.settings.FFMPEGPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(e.settings.FFMPEGPath)
	}
	return ffmpegCmd.Run()
}

// Consume writes every frame received on frames to ffmpeg until frames is
// closed, then waits for ffmpeg to finish. Cancelling ctx aborts the
// recording.
func (e *Encoder) Consume(ctx context.Context, frames <-chan *Frame) error {
	pipeReader, pipeWriter := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		err := e.run(pipeReader)
		// unblock the writer if ffmpeg exits early
		pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %v", err))
		errc <- err
	}()

	frameSize := e.settings.FrameSize()
	var written int64
	for {
		select {
		case <-ctx.Done():
			pipeWriter.CloseWithError(ctx.Err())
			<-errc
			return ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				pipeWriter.Close()
				if err := <-errc; err != nil {
					return fmt.Errorf("ffmpeg failed: %w", err)
				}
				e.log.Info("encoding finished", zap.Int64("frames", written))
				return nil
			}
			if len(frame.Pixels) != frameSize {
				pipeWriter.CloseWithError(io.ErrShortWrite)
				<-errc
				return fmt.Errorf("frame %d has %d bytes, want %d", frame.PTS, len(frame.Pixels), frameSize)
			}
			if _, err := pipeWriter.Write(frame.Pixels); err != nil {
				runErr := <-errc
				if runErr != nil {
					return fmt.Errorf("ffmpeg failed on frame %d: %w", frame.PTS, runErr)
				}
				return fmt.Errorf("failed to write frame %d: %w", frame.PTS, err)
			}
			written++
			e.log.Debug("frame encoded", zap.Int64("pts", frame.PTS))
		}
	}
}
