package app

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/media"
	"github.com/1ureka/castlink/internal/negotiation"
	"github.com/1ureka/castlink/internal/transport"
	"github.com/1ureka/castlink/internal/util"
)

// RunStreamer orchestrates the streamer lifecycle:
//  1. Connect to the signaling server
//  2. Offer an Opus audio and a VP8 video track
//  3. Once connected, play the configured files into the tracks
//  4. Keep the session up until shutdown
func RunStreamer(ctx context.Context, opts Options) error {
	audio, video, err := media.NewStreamerTracks()
	if err != nil {
		return err
	}

	p, err := dial(ctx, opts.WSURL, negotiation.Config{
		Role:   negotiation.RoleStreamer,
		Tracks: []webrtc.TrackLocal{audio, video},
	}, transport.Options{STUNServers: opts.STUNServers})
	if err != nil {
		return err
	}
	defer p.close()

	if err := p.start(); err != nil {
		return err
	}
	util.LogInfo("offer sent, waiting for the remote peer...")

	if err := p.waitConnected(); err != nil {
		return err
	}
	util.StartStatsReporter(p.ctx)
	util.LogSuccess("media session established")

	var wg sync.WaitGroup
	if opts.VideoFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			play(p, "video", opts.VideoFile, p.tr.NewSampleWriter(video), media.PlayIVF)
		}()
	}
	if opts.AudioFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			play(p, "audio", opts.AudioFile, p.tr.NewSampleWriter(audio), media.PlayOgg)
		}()
	}

	err = p.wait()
	p.cancel()
	wg.Wait()
	return err
}

type playFunc func(ctx context.Context, ready <-chan struct{}, sink media.SampleSink, path string) error

func play(p *peer, kind, path string, sink media.SampleSink, fn playFunc) {
	util.LogInfo("streaming %s from %s", kind, path)
	if err := fn(p.ctx, p.tr.Connected(), sink, path); err != nil {
		if p.ctx.Err() == nil {
			util.LogError("%s playback failed: %v", kind, err)
		}
		return
	}
	if p.ctx.Err() == nil {
		util.LogInfo("%s file finished", kind)
	}
}
