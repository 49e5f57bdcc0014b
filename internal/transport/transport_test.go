package transport

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T, opts Options) *Transport {
	t.Helper()
	tr, err := NewTransport(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestViewerOfferIsReceiveOnly(t *testing.T) {
	tr := newTestTransport(t, Options{})

	require.NoError(t, tr.DeclareReceiveIntent(webrtc.RTPCodecTypeVideo))
	offer, err := tr.CreateLocalDescription(webrtc.SDPTypeOffer)
	require.NoError(t, err)

	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)
	assert.Contains(t, offer.SDP, "m=video")
	assert.Contains(t, offer.SDP, "a=recvonly")
	assert.NotContains(t, offer.SDP, "m=audio")
}

func TestCreateAnswerWithoutRemoteFails(t *testing.T) {
	tr := newTestTransport(t, Options{})
	_, err := tr.CreateLocalDescription(webrtc.SDPTypeAnswer)
	assert.Error(t, err)
}

func TestCreateRejectsOtherTypes(t *testing.T) {
	tr := newTestTransport(t, Options{})
	_, err := tr.CreateLocalDescription(webrtc.SDPTypeRollback)
	assert.Error(t, err)
}

// TestOfferAnswerBetweenTransports exchanges descriptions between two real
// PeerConnections without waiting for connectivity.
func TestOfferAnswerBetweenTransports(t *testing.T) {
	streamer := newTestTransport(t, Options{})
	relay := newTestTransport(t, Options{PLIInterval: time.Second})

	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "castlink")
	require.NoError(t, err)
	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "castlink")
	require.NoError(t, err)
	require.NoError(t, streamer.AddLocalTrack(audio))
	require.NoError(t, streamer.AddLocalTrack(video))

	offer, err := streamer.CreateLocalDescription(webrtc.SDPTypeOffer)
	require.NoError(t, err)
	assert.Contains(t, offer.SDP, "m=audio")
	assert.Contains(t, offer.SDP, "m=video")

	require.NoError(t, relay.ApplyRemoteDescription(offer))
	answer, err := relay.CreateLocalDescription(webrtc.SDPTypeAnswer)
	require.NoError(t, err)
	require.NoError(t, streamer.ApplyRemoteDescription(answer))

	assert.Equal(t, webrtc.SignalingStateStable, streamer.pc.SignalingState())
	assert.Equal(t, webrtc.SignalingStateStable, relay.pc.SignalingState())
}

func TestCloseCancelsTransport(t *testing.T) {
	tr, err := NewTransport(context.Background(), Options{})
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done not closed after Close")
	}
}

func TestSampleWriterStopsWithTransport(t *testing.T) {
	tr, err := NewTransport(context.Background(), Options{})
	require.NoError(t, err)

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "castlink")
	require.NoError(t, err)
	w := tr.NewSampleWriter(track)

	// Not connected yet: the sample is buffered.
	assert.True(t, w.Write(context.Background(), media.Sample{Data: []byte{1}, Duration: time.Millisecond}))

	require.NoError(t, tr.Close())
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not stop")
	}
}

func TestLoggerFactoryScopes(t *testing.T) {
	l := loggerFactory{}.NewLogger("ice")
	require.NotNil(t, l)
	assert.Equal(t, "pion/ice: hello", l.(*scopedLogger).prefix("hello"))
}
