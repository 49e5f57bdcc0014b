package transport

import (
	"fmt"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/webrtc/v4"
)

// DefaultSTUNServers are used for ICE candidate gathering when no servers are
// configured. No TURN: the session relies on direct P2P connectivity.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// Options configures the PeerConnection behind a Transport.
type Options struct {
	STUNServers []string

	// PLIInterval makes the receiver request a keyframe at this interval on
	// every inbound video track. Zero disables it.
	PLIInterval time.Duration
}

// newAPI builds a pion API with the default codecs and interceptors, plus the
// optional interval PLI generator, logging through pterm.
func newAPI(opts Options) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}
	if opts.PLIInterval > 0 {
		pli, err := intervalpli.NewReceiverInterceptor(intervalpli.GeneratorInterval(opts.PLIInterval))
		if err != nil {
			return nil, fmt.Errorf("interval PLI: %w", err)
		}
		registry.Add(pli)
	}

	s := webrtc.SettingEngine{LoggerFactory: loggerFactory{}}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(s),
	), nil
}

// newPeerConnection creates a PeerConnection configured with the given STUN
// servers, or the Google ones when none are given.
func newPeerConnection(opts Options) (*webrtc.PeerConnection, error) {
	api, err := newAPI(opts)
	if err != nil {
		return nil, err
	}

	servers := opts.STUNServers
	if len(servers) == 0 {
		servers = DefaultSTUNServers
	}

	return api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: servers},
		},
	})
}
