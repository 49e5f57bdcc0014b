// Package negotiation drives the offer/answer exchange of one media session:
// the LocalSession state, the NegotiationEngine that originates or answers
// offers, the CandidateExchanger that trickles ICE candidates, the Router that
// dispatches inbound envelopes and the Loop that serializes all of it.
package negotiation

import "errors"

// Role is the polarity of a session, fixed at creation.
type Role string

const (
	RoleStreamer Role = "streamer" // publishes local media, originates "offer"
	RoleViewer   Role = "viewer"   // receives one media kind, originates "viewerOffer"
	RoleRelay    Role = "relay"    // never originates; answers the peer's offer
)

// State is the negotiation state of a session.
type State int

const (
	StateIdle                State = iota
	StateLocalOfferSent            // offer set locally and sent, awaiting answer
	StateRemoteOfferReceived       // remote offer applied, answer not yet sent
	StateConnecting                // both descriptions set; media engine takes over
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocalOfferSent:
		return "local-offer-sent"
	case StateRemoteOfferReceived:
		return "remote-offer-received"
	case StateConnecting:
		return "connecting"
	}
	return "unknown"
}

// Error classes. All of them are non-fatal: the triggering event is logged and
// discarded, and the session stays in its last valid state.
var (
	ErrInvalidState      = errors.New("invalid state")
	ErrUnexpectedMessage = errors.New("unexpected message")
)
