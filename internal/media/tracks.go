// Package media builds the streamer's local tracks, feeds them from files on
// disk and consumes the viewer's remote tracks.
package media

import (
	"fmt"

	"github.com/pion/webrtc/v4"
)

// StreamID groups the streamer's tracks into one media stream.
const StreamID = "castlink"

// NewStreamerTracks creates the streamer's media attachment: one Opus audio
// track and one VP8 video track.
func NewStreamerTracks() (audio, video *webrtc.TrackLocalStaticSample, err error) {
	audio, err = webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", StreamID)
	if err != nil {
		return nil, nil, fmt.Errorf("create audio track: %w", err)
	}

	video, err = webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", StreamID)
	if err != nil {
		return nil, nil, fmt.Errorf("create video track: %w", err)
	}

	return audio, video, nil
}
