package negotiation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// Session is the per-peer negotiation state. It is only touched from the
// session's Loop, so it carries no lock.
type Session struct {
	id    string
	role  Role
	state State

	local  *webrtc.SessionDescription
	remote *webrtc.SessionDescription

	// remoteCandidates holds candidates that arrived before the remote
	// description, in arrival order.
	remoteCandidates []webrtc.ICECandidateInit

	// tracks is the streamer's media attachment; attached counts how many of
	// them are already bound to the media binding.
	tracks   []webrtc.TrackLocal
	attached int

	intentDeclared bool

	ready chan struct{}
}

func newSession(id string, role Role, tracks []webrtc.TrackLocal) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:     id,
		role:   role,
		state:  StateIdle,
		tracks: append([]webrtc.TrackLocal(nil), tracks...),
		ready:  make(chan struct{}),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Role() Role    { return s.role }
func (s *Session) State() State  { return s.state }
func (s *Session) short() string { return s.id[:min(8, len(s.id))] }

// LocalDescription returns the local description, if one has been set.
func (s *Session) LocalDescription() (webrtc.SessionDescription, bool) {
	if s.local == nil {
		return webrtc.SessionDescription{}, false
	}
	return *s.local, true
}

// RemoteDescription returns the remote description, if one has been applied.
func (s *Session) RemoteDescription() (webrtc.SessionDescription, bool) {
	if s.remote == nil {
		return webrtc.SessionDescription{}, false
	}
	return *s.remote, true
}

// QueuedCandidates returns a copy of the remote candidate queue.
func (s *Session) QueuedCandidates() []webrtc.ICECandidateInit {
	return append([]webrtc.ICECandidateInit(nil), s.remoteCandidates...)
}

// Ready is closed once the session reaches StateConnecting.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) setLocal(desc webrtc.SessionDescription) error {
	if s.local != nil {
		return fmt.Errorf("%w: local description already set", ErrInvalidState)
	}
	s.local = &desc
	return nil
}

func (s *Session) setRemote(desc webrtc.SessionDescription) error {
	if s.remote != nil {
		return fmt.Errorf("%w: remote description already set", ErrInvalidState)
	}
	s.remote = &desc
	return nil
}

// transition moves the session to next and closes Ready when the terminal
// state is reached.
func (s *Session) transition(next State) {
	s.state = next
	if next == StateConnecting {
		close(s.ready)
	}
}
