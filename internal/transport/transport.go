// Package transport implements the media binding of a negotiation session on
// top of a pion PeerConnection.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/util"
)

// Transport wraps a single PeerConnection and exposes the operations the
// negotiation engine needs: creating and applying descriptions, binding
// tracks and exchanging ICE candidates.
//
// Its lifecycle is governed by the PeerConnection state and the context
// passed at construction time. A failed or closed PeerConnection cancels it.
type Transport struct {
	pc *webrtc.PeerConnection

	connected chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState
}

// NewTransport creates a Transport backed by a new PeerConnection.
func NewTransport(ctx context.Context, opts Options) (*Transport, error) {
	pc, err := newPeerConnection(opts)
	if err != nil {
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)

	t := &Transport{
		pc:        pc,
		connected: make(chan struct{}),
		ctx:       tCtx,
		cancel:    tCancel,
		pcState:   webrtc.PeerConnectionStateNew,
	}

	var connectedOnce sync.Once
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		t.mu.Lock()
		t.pcState = state
		t.mu.Unlock()

		switch state {
		case webrtc.PeerConnectionStateConnected:
			connectedOnce.Do(func() { close(t.connected) })
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			tCancel()
		}
	})

	// Gathering progress is observed only; offers and answers never wait on it.
	pc.OnICEGatheringStateChange(func(state webrtc.ICEGatheringState) {
		util.LogDebug("ICE gathering state: %s", state.String())
	})
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		util.LogDebug("ICE connection state: %s", state.String())
	})

	return t, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Connected returns a channel that is closed when the PeerConnection first
// reaches the connected state.
func (t *Transport) Connected() <-chan struct{} {
	return t.connected
}

// Done returns a channel that is closed when the Transport is shut down
// (PeerConnection failed/closed or parent context cancelled).
func (t *Transport) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Close shuts down the PeerConnection.
func (t *Transport) Close() error {
	t.cancel()
	return t.pc.Close()
}

// ConnectionState returns the last observed PeerConnection state.
func (t *Transport) ConnectionState() webrtc.PeerConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pcState
}

// ---------------------------------------------------------------------------
// Descriptions
// ---------------------------------------------------------------------------

// CreateLocalDescription generates an offer or answer and sets it as the
// local description. ICE gathering starts here; candidates are trickled
// through OnLocalCandidate.
func (t *Transport) CreateLocalDescription(typ webrtc.SDPType) (webrtc.SessionDescription, error) {
	var (
		desc webrtc.SessionDescription
		err  error
	)
	switch typ {
	case webrtc.SDPTypeOffer:
		desc, err = t.pc.CreateOffer(nil)
	case webrtc.SDPTypeAnswer:
		desc, err = t.pc.CreateAnswer(nil)
	default:
		return desc, fmt.Errorf("cannot create local description of type %s", typ)
	}
	if err != nil {
		return desc, err
	}

	if err := t.pc.SetLocalDescription(desc); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return desc, nil
}

// ApplyRemoteDescription applies the remote SDP.
func (t *Transport) ApplyRemoteDescription(desc webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(desc)
}

// ---------------------------------------------------------------------------
// Media
// ---------------------------------------------------------------------------

// AddLocalTrack binds a local track to the session. Inbound RTCP for the
// track is drained in the background so that interceptors keep running.
func (t *Transport) AddLocalTrack(track webrtc.TrackLocal) error {
	sender, err := t.pc.AddTrack(track)
	if err != nil {
		return err
	}

	go func() {
		rtcpBuf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(rtcpBuf); err != nil {
				return
			}
		}
	}()
	return nil
}

// DeclareReceiveIntent adds a receive-only transceiver for kind.
func (t *Transport) DeclareReceiveIntent(kind webrtc.RTPCodecType) error {
	_, err := t.pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	return err
}

// OnRemoteTrack registers a callback invoked for every inbound track.
func (t *Transport) OnRemoteTrack(fn func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	t.pc.OnTrack(fn)
}

// ---------------------------------------------------------------------------
// Candidates
// ---------------------------------------------------------------------------

// OnLocalCandidate registers a callback invoked whenever a new local ICE
// candidate is gathered. A nil candidate signals the end of gathering.
func (t *Transport) OnLocalCandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

// AddRemoteCandidate adds a remote ICE candidate received through signaling.
func (t *Transport) AddRemoteCandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}
