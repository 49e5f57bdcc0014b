package transport

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/1ureka/castlink/internal/util"
)

const sampleBufferSize = 64 // outgoing sample channel capacity

// SampleWriter is a goroutine-based sample writer that serializes all writes
// to a single local track, gated on the Transport being connected.
type SampleWriter struct {
	inbox chan media.Sample
	done  chan struct{}
}

// NewSampleWriter creates a SampleWriter for track and starts its background
// loop. The loop exits when the Transport is done.
func (t *Transport) NewSampleWriter(track *webrtc.TrackLocalStaticSample) *SampleWriter {
	w := &SampleWriter{
		inbox: make(chan media.Sample, sampleBufferSize),
		done:  make(chan struct{}),
	}

	go w.loop(t.ctx, track, t.connected)

	return w
}

// loop is the single-writer goroutine. It waits for the PeerConnection to
// connect, then drains the inbox.
func (w *SampleWriter) loop(ctx context.Context, track *webrtc.TrackLocalStaticSample, connected <-chan struct{}) {
	defer close(w.done)

	// Phase 1: wait for the media path.
	select {
	case <-connected:
	case <-ctx.Done():
		return
	}

	// Phase 2: write samples.
	for {
		select {
		case s := <-w.inbox:
			if err := track.WriteSample(s); err != nil {
				util.LogError("failed to write %s sample: %v", track.Kind(), err)
				return
			}
			util.Stats.AddSent(len(s.Data))
		case <-ctx.Done():
			return
		}
	}
}

// Write enqueues a sample. It blocks while the internal buffer is full and
// returns false once ctx is cancelled or the writer has stopped.
func (w *SampleWriter) Write(ctx context.Context, s media.Sample) bool {
	select {
	case w.inbox <- s:
		return true
	case <-w.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Done is closed when the writer loop exits.
func (w *SampleWriter) Done() <-chan struct{} {
	return w.done
}
