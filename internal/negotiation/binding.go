package negotiation

import (
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/protocol"
)

// MediaBinding is the media-transport engine the negotiation drives. Every
// description step is a single call; CreateLocalDescription both creates the
// description and sets it locally.
type MediaBinding interface {
	CreateLocalDescription(typ webrtc.SDPType) (webrtc.SessionDescription, error)
	ApplyRemoteDescription(desc webrtc.SessionDescription) error
	AddLocalTrack(track webrtc.TrackLocal) error
	DeclareReceiveIntent(kind webrtc.RTPCodecType) error
	AddRemoteCandidate(candidate webrtc.ICECandidateInit) error
}

// Outbox sends envelopes to the signaling channel.
type Outbox interface {
	Send(env *protocol.Envelope) error
}
