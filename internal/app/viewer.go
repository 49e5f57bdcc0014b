package app

import (
	"context"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/media"
	"github.com/1ureka/castlink/internal/negotiation"
	"github.com/1ureka/castlink/internal/transport"
	"github.com/1ureka/castlink/internal/util"
)

// keyframeInterval is how often the viewer asks for a fresh keyframe, so a
// recording can start decoding without waiting for the sender.
const keyframeInterval = 3 * time.Second

// RunViewer orchestrates the viewer lifecycle:
//  1. Connect to the signaling server
//  2. Offer to receive video
//  3. Record or discard every inbound track until shutdown
func RunViewer(ctx context.Context, opts Options) error {
	p, err := dial(ctx, opts.WSURL, negotiation.Config{
		Role: negotiation.RoleViewer,
	}, transport.Options{
		STUNServers: opts.STUNServers,
		PLIInterval: keyframeInterval,
	})
	if err != nil {
		return err
	}
	defer p.close()

	p.tr.OnRemoteTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		util.LogSuccess("receiving %s track (%s)", track.Kind(), track.Codec().MimeType)
		if err := media.Consume(track, opts.OutDir); err != nil && p.ctx.Err() == nil {
			util.LogError("%s track ended: %v", track.Kind(), err)
		}
	})

	if err := p.start(); err != nil {
		return err
	}
	util.LogInfo("viewer offer sent, waiting for the stream...")

	if err := p.waitConnected(); err != nil {
		return err
	}
	util.StartStatsReporter(p.ctx)
	util.LogSuccess("media session established")

	return p.wait()
}
