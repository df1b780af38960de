package pion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/h264reader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/rs/zerolog/log"
)

const (
	defaultFPS    = 30
	opusClockRate = 48000
)

var errEmptySource = errors.New("capture file has no samples")

// Capture plays files into the local tracks in place of camera and
// microphone: an H.264 Annex-B stream and an Ogg/Opus file. Both loop.
type Capture struct {
	VideoFile string
	AudioFile string
	FPS       int
}

func (c Capture) enabled() bool { return c.VideoFile != "" || c.AudioFile != "" }

func (c Capture) fps() int {
	if c.FPS <= 0 {
		return defaultFPS
	}
	return c.FPS
}

type nextSample func() (media.Sample, error)

type sampleOpener func(io.Reader) (nextSample, error)

func h264Samples(fps int) sampleOpener {
	frame := time.Second / time.Duration(fps)
	return func(in io.Reader) (nextSample, error) {
		r, err := h264reader.NewReader(in)
		if err != nil {
			return nil, err
		}
		return func() (media.Sample, error) {
			nal, err := r.NextNAL()
			if err != nil {
				return media.Sample{}, err
			}
			return media.Sample{Data: nal.Data, Duration: frame}, nil
		}, nil
	}
}

func oggSamples(in io.Reader) (nextSample, error) {
	r, _, err := oggreader.NewWith(in)
	if err != nil {
		return nil, err
	}
	var last uint64
	return func() (media.Sample, error) {
		data, hdr, err := r.ParseNextPage()
		if err != nil {
			return media.Sample{}, err
		}
		count := hdr.GranulePosition - last
		last = hdr.GranulePosition
		return media.Sample{Data: data, Duration: time.Duration(count) * time.Second / opusClockRate}, nil
	}, nil
}

// start runs one feeder per configured file until ctx ends.
func (c Capture) start(ctx context.Context, s *LocalStream) {
	if c.VideoFile != "" {
		go s.feed(ctx, webrtc.RTPCodecTypeVideo, c.VideoFile, h264Samples(c.fps()))
	}
	if c.AudioFile != "" {
		go s.feed(ctx, webrtc.RTPCodecTypeAudio, c.AudioFile, oggSamples)
	}
}

// feed replays path into the track of kind, from the top each time it ends.
func (s *LocalStream) feed(ctx context.Context, kind webrtc.RTPCodecType, path string, open sampleOpener) {
	logger := log.With().Str("module", "rtc.pion").Str("kind", kind.String()).Str("file", path).Logger()
	logger.Info().Msg("capture started")
	for {
		err := s.feedOnce(ctx, kind, path, open)
		switch {
		case errors.Is(err, io.EOF):
			continue
		case err == nil, errors.Is(err, ErrStreamClosed), errors.Is(err, context.Canceled):
			logger.Info().Msg("capture stopped")
		default:
			logger.Error().Err(err).Msg("capture failed")
		}
		return
	}
}

// feedOnce writes one pass of path, paced by sample durations. It returns
// io.EOF when the pass completed.
func (s *LocalStream) feedOnce(ctx context.Context, kind webrtc.RTPCodecType, path string, open sampleOpener) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	next, err := open(f)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sample, err := next()
		if errors.Is(err, io.EOF) && written == 0 {
			return errEmptySource
		}
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := s.WriteSample(kind, sample); err != nil {
			return err
		}
		written++
		timer.Reset(sample.Duration)
	}
}
