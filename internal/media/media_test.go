package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	samples []media.Sample
}

func (s *recordingSink) Write(_ context.Context, sample media.Sample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return true
}

func readyNow() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// buildIVF assembles a VP8 IVF stream with a 1ms timebase.
func buildIVF(frames ...[]byte) []byte {
	var buf bytes.Buffer
	header := make([]byte, 32)
	copy(header[0:4], "DKIF")
	binary.LittleEndian.PutUint16(header[6:8], 32)
	copy(header[8:12], "VP80")
	binary.LittleEndian.PutUint16(header[12:14], 640)
	binary.LittleEndian.PutUint16(header[14:16], 480)
	binary.LittleEndian.PutUint32(header[16:20], 1000)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], uint32(len(frames)))
	buf.Write(header)

	for i, f := range frames {
		fh := make([]byte, 12)
		binary.LittleEndian.PutUint32(fh[0:4], uint32(len(f)))
		binary.LittleEndian.PutUint64(fh[4:12], uint64(i))
		buf.Write(fh)
		buf.Write(f)
	}
	return buf.Bytes()
}

func TestNewStreamerTracks(t *testing.T) {
	audio, video, err := NewStreamerTracks()
	require.NoError(t, err)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, audio.Kind())
	assert.Equal(t, webrtc.RTPCodecTypeVideo, video.Kind())
	assert.Equal(t, StreamID, audio.StreamID())
	assert.Equal(t, StreamID, video.StreamID())
}

func TestPlayIVF(t *testing.T) {
	sink := &recordingSink{}
	frames := [][]byte{{0x10, 0x02}, {0x11, 0x03, 0x04}, {0x12}}

	err := playIVF(context.Background(), readyNow(), sink, bytes.NewReader(buildIVF(frames...)))
	require.NoError(t, err)

	require.Len(t, sink.samples, len(frames))
	for i, f := range frames {
		assert.Equal(t, f, sink.samples[i].Data)
		assert.Equal(t, int64(1e6), sink.samples[i].Duration.Nanoseconds())
	}
}

func TestPlayIVFFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ivf")
	require.NoError(t, os.WriteFile(path, buildIVF([]byte{1}, []byte{2}), 0o644))

	sink := &recordingSink{}
	require.NoError(t, PlayIVF(context.Background(), readyNow(), sink, path))
	assert.Len(t, sink.samples, 2)
}

func TestPlayIVFRejectsGarbage(t *testing.T) {
	err := playIVF(context.Background(), readyNow(), &recordingSink{}, bytes.NewReader([]byte("not an ivf file at all, really not")))
	assert.Error(t, err)
}

func TestPlayWaitsForReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	err := playIVF(ctx, make(chan struct{}), sink, bytes.NewReader(buildIVF([]byte{1})))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.samples)
}

func TestPlayOgg(t *testing.T) {
	var buf bytes.Buffer
	w, err := oggwriter.NewWith(&buf, 48000, 2)
	require.NoError(t, err)

	payloads := [][]byte{{0xfc, 0x01}, {0xfc, 0x02}, {0xfc, 0x03}}
	for i, p := range payloads {
		require.NoError(t, w.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{Timestamp: uint32(i * 960)},
			Payload: p,
		}))
	}

	sink := &recordingSink{}
	require.NoError(t, playOgg(context.Background(), readyNow(), sink, bytes.NewReader(buf.Bytes())))

	// The comment header page comes first, then one page per packet.
	require.GreaterOrEqual(t, len(sink.samples), len(payloads))
	tail := sink.samples[len(sink.samples)-len(payloads):]
	for i, p := range payloads {
		assert.Equal(t, p, tail[i].Data)
	}
}

// fakeTrack replays packets then reports io.EOF.
type fakeTrack struct {
	codec   webrtc.RTPCodecParameters
	packets []*rtp.Packet
}

func (f *fakeTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	if len(f.packets) == 0 {
		return nil, nil, io.EOF
	}
	p := f.packets[0]
	f.packets = f.packets[1:]
	return p, nil, nil
}

func (f *fakeTrack) Codec() webrtc.RTPCodecParameters { return f.codec }

func TestConsumeDiscardsWithoutDir(t *testing.T) {
	track := &fakeTrack{
		codec:   webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}},
		packets: []*rtp.Packet{{Payload: []byte{1, 2, 3}}, {Payload: []byte{4}}},
	}
	require.NoError(t, Consume(track, ""))
	assert.Empty(t, track.packets)
}

func TestConsumeRecordsOpus(t *testing.T) {
	dir := t.TempDir()
	track := &fakeTrack{
		codec: webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}},
		packets: []*rtp.Packet{
			{Header: rtp.Header{Timestamp: 0}, Payload: []byte{0xfc, 0x01}},
			{Header: rtp.Header{Timestamp: 960}, Payload: []byte{0xfc, 0x02}},
		},
	}
	require.NoError(t, Consume(track, dir))

	info, err := os.Stat(filepath.Join(dir, "audio.ogg"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestConsumeIgnoresUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	track := &fakeTrack{
		codec:   webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: "video/H265"}},
		packets: []*rtp.Packet{{Payload: []byte{1}}},
	}
	require.NoError(t, Consume(track, dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPageDuration(t *testing.T) {
	d, last := pageDuration(960, 0, 48000)
	assert.Equal(t, 20*time.Millisecond, d)
	assert.Equal(t, uint64(960), last)

	d, last = pageDuration(^uint64(0), 960, 48000)
	assert.Zero(t, d, "a page without a finished packet has no duration")
	assert.Equal(t, uint64(960), last)

	d, last = pageDuration(1920, last, 48000)
	assert.Equal(t, 20*time.Millisecond, d)
	assert.Equal(t, uint64(1920), last)
}
