package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// oggPageDuration is the pacing interval for Ogg/Opus pages.
const oggPageDuration = 20 * time.Millisecond

// SampleSink accepts paced media samples. transport.SampleWriter is one.
type SampleSink interface {
	Write(ctx context.Context, s media.Sample) bool
}

// PlayIVF streams the frames of an IVF (VP8) file into sink, paced by the
// file's timebase. It waits for ready before reading the first frame and
// returns nil at end of file.
func PlayIVF(ctx context.Context, ready <-chan struct{}, sink SampleSink, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return playIVF(ctx, ready, sink, file)
}

func playIVF(ctx context.Context, ready <-chan struct{}, sink SampleSink, r io.Reader) error {
	ivf, header, err := ivfreader.NewWith(r)
	if err != nil {
		return fmt.Errorf("read IVF header: %w", err)
	}
	if header.TimebaseDenominator == 0 {
		return fmt.Errorf("IVF header has zero timebase")
	}

	frameDuration := time.Duration(float64(header.TimebaseNumerator) / float64(header.TimebaseDenominator) * float64(time.Second))
	if frameDuration <= 0 {
		frameDuration = time.Second / 30
	}

	if !wait(ctx, ready) {
		return ctx.Err()
	}

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		frame, _, err := ivf.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read IVF frame: %w", err)
		}

		if !sink.Write(ctx, media.Sample{Data: frame, Duration: frameDuration}) {
			return ctx.Err()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PlayOgg streams the pages of an Ogg/Opus file into sink, one page every
// 20ms. It waits for ready before reading the first page and returns nil at
// end of file.
func PlayOgg(ctx context.Context, ready <-chan struct{}, sink SampleSink, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return playOgg(ctx, ready, sink, file)
}

func playOgg(ctx context.Context, ready <-chan struct{}, sink SampleSink, r io.Reader) error {
	ogg, header, err := oggreader.NewWith(r)
	if err != nil {
		return fmt.Errorf("read Ogg header: %w", err)
	}
	sampleRate := float64(header.SampleRate)
	if sampleRate == 0 {
		sampleRate = 48000
	}

	if !wait(ctx, ready) {
		return ctx.Err()
	}

	ticker := time.NewTicker(oggPageDuration)
	defer ticker.Stop()

	var lastGranule uint64
	for {
		page, pageHeader, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read Ogg page: %w", err)
		}

		var duration time.Duration
		duration, lastGranule = pageDuration(pageHeader.GranulePosition, lastGranule, sampleRate)

		if !sink.Write(ctx, media.Sample{Data: page, Duration: duration}) {
			return ctx.Err()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// noGranule marks a page on which no packet finishes.
const noGranule = ^uint64(0)

// pageDuration returns the play time of a page from its granule position,
// which counts samples since the start of the stream, and the granule to
// measure the next page against.
func pageDuration(granule, last uint64, sampleRate float64) (time.Duration, uint64) {
	if granule == noGranule || granule < last {
		return 0, last
	}
	samples := float64(granule - last)
	return time.Duration(samples / sampleRate * float64(time.Second)), granule
}

func wait(ctx context.Context, ready <-chan struct{}) bool {
	select {
	case <-ready:
		return true
	case <-ctx.Done():
		return false
	}
}
