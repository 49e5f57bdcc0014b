package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ErrRoleTaken is returned when a second peer claims an occupied role.
var ErrRoleTaken = errors.New("role already taken")

type peerRole string

const (
	roleStreamer peerRole = "streamer"
	roleViewer   peerRole = "viewer"
)

// room pairs exactly one streamer with one viewer and hands the streamer's
// forwarded video track to the viewer.
type room struct {
	mu       sync.Mutex
	streamer string
	viewer   string

	track      *webrtc.TrackLocalStaticRTP
	trackReady chan struct{}
}

func newRoom() *room {
	return &room{trackReady: make(chan struct{})}
}

// claim assigns role to the peer id. Re-claiming one's own role is allowed.
func (r *room) claim(role peerRole, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := &r.streamer
	if role == roleViewer {
		slot = &r.viewer
	}
	if *slot != "" && *slot != id {
		return fmt.Errorf("%w: %s", ErrRoleTaken, role)
	}
	*slot = id
	return nil
}

// release frees every role held by id. When the streamer leaves, its
// forwarded track is withdrawn so that the next streamer can publish.
func (r *room) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.viewer == id {
		r.viewer = ""
	}
	if r.streamer == id {
		r.streamer = ""
		if r.track != nil {
			r.track = nil
			r.trackReady = make(chan struct{})
		}
	}
}

// publish makes track available to the viewer. Only the first video track
// of a streamer is kept.
func (r *room) publish(track *webrtc.TrackLocalStaticRTP) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.track != nil {
		return false
	}
	r.track = track
	close(r.trackReady)
	return true
}

// waitTrack blocks until a track is published or ctx is done.
func (r *room) waitTrack(ctx context.Context) (*webrtc.TrackLocalStaticRTP, error) {
	for {
		r.mu.Lock()
		track, ready := r.track, r.trackReady
		r.mu.Unlock()

		if track != nil {
			return track, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
