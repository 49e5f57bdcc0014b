// Package protocol defines the signaling envelope exchanged between a peer and
// the relay, and the payload codecs for session descriptions and candidates.
package protocol

import "errors"

// Kind identifies the kind of signaling envelope. It is carried in the
// "type" field on the wire.
type Kind string

const (
	KindOffer       Kind = "offer"       // streamer offer
	KindViewerOffer Kind = "viewerOffer" // viewer offer (receive only)
	KindAnswer      Kind = "answer"      // answer to either offer kind
	KindCandidate   Kind = "candidate"   // trickled ICE candidate
)

// Known reports whether k is one of the kinds this protocol understands.
func (k Kind) Known() bool {
	switch k {
	case KindOffer, KindViewerOffer, KindAnswer, KindCandidate:
		return true
	}
	return false
}

// IsOffer reports whether k carries an offer description.
func (k Kind) IsOffer() bool {
	return k == KindOffer || k == KindViewerOffer
}

// Envelope is the JSON structure exchanged over the signaling channel.
// Data is itself a JSON document encoded as a string; only the consumer
// that understands Kind decodes it.
type Envelope struct {
	Kind Kind   `json:"type"`
	Data string `json:"data"`
}

// ErrDecode marks a malformed envelope or payload.
var ErrDecode = errors.New("decode error")
