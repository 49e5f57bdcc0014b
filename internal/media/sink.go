package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"

	"github.com/1ureka/castlink/internal/util"
)

// RTPSource is the part of a remote track a sink reads from.
// *webrtc.TrackRemote implements it.
type RTPSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
	Codec() webrtc.RTPCodecParameters
}

type rtpWriter interface {
	WriteRTP(packet *rtp.Packet) error
	Close() error
}

// Consume reads a remote track until it ends. VP8 video is recorded to
// <dir>/video.ivf and Opus audio to <dir>/audio.ogg; other codecs, or an
// empty dir, are read and discarded. Every packet is counted in util.Stats.
func Consume(track RTPSource, dir string) (err error) {
	w, path, err := newRecorder(track.Codec(), dir)
	if err != nil {
		return err
	}
	if w != nil {
		util.LogInfo("recording %s to %s", track.Codec().MimeType, path)
		defer func() {
			err = errors.Join(err, w.Close())
		}()
	}

	for {
		pkt, _, readErr := track.ReadRTP()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read RTP: %w", readErr)
		}
		util.Stats.AddRecv(len(pkt.Payload))

		if w != nil {
			if err := w.WriteRTP(pkt); err != nil {
				util.LogDebug("dropping %s packet: %v", track.Codec().MimeType, err)
			}
		}
	}
}

func newRecorder(codec webrtc.RTPCodecParameters, dir string) (rtpWriter, string, error) {
	if dir == "" {
		return nil, "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", err
	}

	switch strings.ToLower(codec.MimeType) {
	case strings.ToLower(webrtc.MimeTypeVP8):
		path := filepath.Join(dir, "video.ivf")
		w, err := ivfwriter.New(path, ivfwriter.WithCodec(webrtc.MimeTypeVP8))
		return w, path, err

	case strings.ToLower(webrtc.MimeTypeOpus):
		path := filepath.Join(dir, "audio.ogg")
		w, err := oggwriter.New(path, 48000, 2)
		return w, path, err
	}
	return nil, "", nil
}
