package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

type wireDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// EncodeDescription serializes a session description into an envelope payload.
func EncodeDescription(desc webrtc.SessionDescription) (string, error) {
	data, err := json.Marshal(wireDescription{Type: desc.Type.String(), SDP: desc.SDP})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeDescription parses an envelope payload into a session description of
// type want. Browser peers sometimes send the bare SDP text instead of a JSON
// object; that form is accepted and tagged with want. A JSON description
// whose type disagrees with want is rejected.
func DecodeDescription(data string, want webrtc.SDPType) (webrtc.SessionDescription, error) {
	trimmed := strings.TrimSpace(data)

	switch {
	case strings.HasPrefix(trimmed, "v="):
		return webrtc.SessionDescription{Type: want, SDP: data}, nil

	case strings.HasPrefix(trimmed, "{"):
		var w wireDescription
		if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %s: %v", ErrDecode, want, err)
		}
		if w.SDP == "" {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %s: empty sdp", ErrDecode, want)
		}
		if w.Type != "" && webrtc.NewSDPType(w.Type) != want {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: expected %s, got %q", ErrDecode, want, w.Type)
		}
		return webrtc.SessionDescription{Type: want, SDP: w.SDP}, nil

	default:
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %s: not a session description", ErrDecode, want)
	}
}

// EncodeCandidate serializes an ICE candidate into an envelope payload.
func EncodeCandidate(c webrtc.ICECandidateInit) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeCandidate parses an envelope payload into an ICE candidate.
func DecodeCandidate(data string) (webrtc.ICECandidateInit, error) {
	var c webrtc.ICECandidateInit
	trimmed := strings.TrimSpace(data)
	if trimmed == "" || trimmed == "null" {
		return c, fmt.Errorf("%w: candidate: empty payload", ErrDecode)
	}
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return c, fmt.Errorf("%w: candidate: %v", ErrDecode, err)
	}
	return c, nil
}
