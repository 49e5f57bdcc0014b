// Package app contains the top-level orchestration for the streamer and viewer
// roles.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/negotiation"
	"github.com/1ureka/castlink/internal/signaling"
	"github.com/1ureka/castlink/internal/transport"
	"github.com/1ureka/castlink/internal/util"
)

// Options configures a streamer or viewer run.
type Options struct {
	WSURL       string
	STUNServers []string
	VideoFile   string // Streamer: IVF (VP8) file
	AudioFile   string // Streamer: Ogg (Opus) file
	OutDir      string // Viewer: recording directory
}

// peer is one negotiation session: its signaling channel, its PeerConnection
// and the loop that serializes every event between them.
type peer struct {
	ch     *signaling.Channel
	tr     *transport.Transport
	engine *negotiation.Engine
	loop   *negotiation.Loop

	ctx      context.Context
	cancel   context.CancelFunc
	watchErr chan error
}

// dial connects to the signaling server and wires a Transport, an Engine and
// a Loop together. Negotiation does not begin until start is called, so
// callers can register track handlers first.
func dial(ctx context.Context, wsURL string, cfg negotiation.Config, opts transport.Options) (*peer, error) {
	ch, err := signaling.Dial(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	util.LogDebug("signaling channel open: %s", wsURL)

	pCtx, pCancel := context.WithCancel(ctx)

	tr, err := transport.NewTransport(pCtx, opts)
	if err != nil {
		pCancel()
		ch.Close()
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	engine := negotiation.NewEngine(cfg, tr, ch)
	router := negotiation.NewRouter(engine)
	loop := negotiation.NewLoop(engine.Session().ID())

	p := &peer{
		ch:       ch,
		tr:       tr,
		engine:   engine,
		loop:     loop,
		ctx:      pCtx,
		cancel:   pCancel,
		watchErr: make(chan error, 1),
	}

	tr.OnLocalCandidate(func(c *webrtc.ICECandidate) {
		loop.Post(func() error { return engine.Exchanger().OnLocalCandidateDiscovered(c) })
	})

	go loop.Run(pCtx)
	go func() {
		p.watchErr <- ch.Watch(func(raw []byte) {
			loop.Post(func() error { return router.HandleRaw(raw) })
		})
	}()

	// Closing the channel is the only way to stop Watch.
	go func() {
		<-pCtx.Done()
		ch.Close()
	}()

	return p, nil
}

// start sends the local offer from the session loop and reports its result.
func (p *peer) start() error {
	result := make(chan error, 1)
	posted := p.loop.Post(func() error {
		result <- p.engine.Start()
		return nil
	})
	if !posted {
		return errors.New("session closed before negotiation started")
	}

	select {
	case err := <-result:
		return err
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// waitConnected blocks until the PeerConnection is connected, the signaling
// channel closes or the transport shuts down.
func (p *peer) waitConnected() error {
	select {
	case <-p.tr.Connected():
		return nil
	case err := <-p.watchErr:
		p.watchErr <- err
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}
		if err == nil {
			return errors.New("signaling channel closed before the peer connected")
		}
		return fmt.Errorf("signaling failed: %w", err)
	case <-p.tr.Done():
		if err := p.ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("peer connection %s", p.tr.ConnectionState())
	}
}

// wait blocks until the session ends. A cancelled parent context or a
// normally closed signaling channel is a clean shutdown.
func (p *peer) wait() error {
	select {
	case err := <-p.watchErr:
		p.watchErr <- err
		if p.ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("signaling failed: %w", err)
		}
		util.LogInfo("signaling channel closed by the remote side")
		return nil
	case <-p.tr.Done():
		if p.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("peer connection %s", p.tr.ConnectionState())
	}
}

// close tears the session down. Safe to call more than once.
func (p *peer) close() error {
	p.cancel()
	return errors.Join(p.tr.Close(), p.ch.Close())
}
