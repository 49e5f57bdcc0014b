package negotiation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/castlink/internal/protocol"
)

// fakeMedia records every call made by the engine, in order.
type fakeMedia struct {
	calls      []string
	tracks     []webrtc.TrackLocal
	intents    []webrtc.RTPCodecType
	remote     []webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	created    int

	failApply  error
	failCreate error
}

func (f *fakeMedia) CreateLocalDescription(typ webrtc.SDPType) (webrtc.SessionDescription, error) {
	f.calls = append(f.calls, "create:"+typ.String())
	if f.failCreate != nil {
		return webrtc.SessionDescription{}, f.failCreate
	}
	f.created++
	return webrtc.SessionDescription{
		Type: typ,
		SDP:  fmt.Sprintf("v=0\r\ns=%s-%d\r\n", typ, f.created),
	}, nil
}

func (f *fakeMedia) ApplyRemoteDescription(desc webrtc.SessionDescription) error {
	f.calls = append(f.calls, "apply:"+desc.Type.String())
	if f.failApply != nil {
		return f.failApply
	}
	f.remote = append(f.remote, desc)
	return nil
}

func (f *fakeMedia) AddLocalTrack(track webrtc.TrackLocal) error {
	f.calls = append(f.calls, "track:"+track.Kind().String())
	f.tracks = append(f.tracks, track)
	return nil
}

func (f *fakeMedia) DeclareReceiveIntent(kind webrtc.RTPCodecType) error {
	f.calls = append(f.calls, "intent:"+kind.String())
	f.intents = append(f.intents, kind)
	return nil
}

func (f *fakeMedia) AddRemoteCandidate(c webrtc.ICECandidateInit) error {
	f.calls = append(f.calls, "candidate:"+c.Candidate)
	f.candidates = append(f.candidates, c)
	return nil
}

// fakeOutbox collects sent envelopes; when peer is set every envelope is also
// encoded and handed to the peer's router.
type fakeOutbox struct {
	sent []*protocol.Envelope
	peer *Router
	errs []error
}

func (o *fakeOutbox) Send(env *protocol.Envelope) error {
	o.sent = append(o.sent, env)
	if o.peer != nil {
		raw, err := protocol.Encode(env)
		if err != nil {
			return err
		}
		if err := o.peer.HandleRaw(raw); err != nil {
			o.errs = append(o.errs, err)
		}
	}
	return nil
}

func (o *fakeOutbox) last(t *testing.T) *protocol.Envelope {
	t.Helper()
	require.NotEmpty(t, o.sent, "no envelope sent")
	return o.sent[len(o.sent)-1]
}

var errMedia = errors.New("media failure")

func newTestEngine(role Role, tracks ...webrtc.TrackLocal) (*Engine, *fakeMedia, *fakeOutbox) {
	media := &fakeMedia{}
	out := &fakeOutbox{}
	e := NewEngine(Config{ID: "test-session", Role: role, Tracks: tracks}, media, out)
	return e, media, out
}

func newTestTrack(t *testing.T, mime, id string) webrtc.TrackLocal {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: mime}, id, "castlink")
	require.NoError(t, err)
	return track
}

func answerPayload(t *testing.T, sdp string) string {
	t.Helper()
	data, err := protocol.EncodeDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
	require.NoError(t, err)
	return data
}

func offerPayload(t *testing.T, sdp string) string {
	t.Helper()
	data, err := protocol.EncodeDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp})
	require.NoError(t, err)
	return data
}

func candidatePayload(t *testing.T, candidate string) string {
	t.Helper()
	data, err := protocol.EncodeCandidate(webrtc.ICECandidateInit{Candidate: candidate})
	require.NoError(t, err)
	return data
}
