package relay

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/negotiation"
	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/signaling"
	"github.com/1ureka/castlink/internal/transport"
	"github.com/1ureka/castlink/internal/util"
)

// session is one signaling connection to the relay and the answering
// PeerConnection behind it.
type session struct {
	id   string
	ctx  context.Context
	ch   *signaling.Channel
	tr   *transport.Transport
	room *room
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ch, err := signaling.Upgrade(w, r)
	if err != nil {
		return
	}
	s.serve(ch)
}

// serve runs one session until its channel closes or the server shuts down.
func (s *Server) serve(ch *signaling.Channel) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	defer ch.Close()

	// Closing the channel is the only way to stop Watch.
	go func() {
		<-ctx.Done()
		ch.Close()
	}()

	tr, err := transport.NewTransport(ctx, s.opts)
	if err != nil {
		util.LogError("failed to create transport for %s: %v", ch.RemoteAddr(), err)
		return
	}
	defer tr.Close()

	sess := &session{id: uuid.NewString(), ctx: ctx, ch: ch, tr: tr, room: s.room}
	defer s.room.release(sess.id)

	s.metrics.sessions.Inc()
	util.LogInfo("[%s] peer connected from %s", sess.id[:8], ch.RemoteAddr())

	engine := negotiation.NewEngine(negotiation.Config{
		ID:            sess.id,
		Role:          negotiation.RoleRelay,
		PrepareAnswer: sess.prepareAnswer,
	}, tr, ch)
	router := negotiation.NewRouter(engine)
	router.Observe = s.metrics.observe

	loop := negotiation.NewLoop(sess.id)
	tr.OnLocalCandidate(func(c *webrtc.ICECandidate) {
		loop.Post(func() error { return engine.Exchanger().OnLocalCandidateDiscovered(c) })
	})
	tr.OnRemoteTrack(sess.onTrack)
	go loop.Run(ctx)

	err = ch.Watch(func(raw []byte) {
		loop.Post(func() error {
			env, err := protocol.Decode(raw)
			if err != nil {
				s.metrics.decodeFailed()
				return err
			}
			return router.Dispatch(env)
		})
	})
	if err != nil && ctx.Err() == nil {
		util.LogDebug("[%s] %v", sess.id[:8], err)
	}
	util.LogInfo("[%s] peer disconnected", sess.id[:8])
}

// prepareAnswer claims the role implied by the offer kind. A viewer's answer
// waits for the streamer's video and carries it.
func (sess *session) prepareAnswer(kind protocol.Kind) error {
	role := roleStreamer
	if kind == protocol.KindViewerOffer {
		role = roleViewer
	}

	if err := sess.room.claim(role, sess.id); err != nil {
		sess.ch.Reject(err.Error())
		return err
	}
	if role == roleStreamer {
		return nil
	}

	util.LogInfo("[%s] viewer waiting for the streamer's video", sess.id[:8])
	track, err := sess.room.waitTrack(sess.ctx)
	if err != nil {
		return err
	}
	return sess.tr.AddLocalTrack(track)
}

// onTrack re-publishes the streamer's first video track and copies its RTP.
// Other tracks are read and discarded.
func (sess *session) onTrack(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	util.LogInfo("[%s] receiving %s track (%s)", sess.id[:8], remote.Kind(), remote.Codec().MimeType)

	var local *webrtc.TrackLocalStaticRTP
	if remote.Kind() == webrtc.RTPCodecTypeVideo {
		track, err := webrtc.NewTrackLocalStaticRTP(remote.Codec().RTPCodecCapability, remote.ID(), remote.StreamID())
		if err != nil {
			util.LogError("[%s] failed to create forwarding track: %v", sess.id[:8], err)
			return
		}
		if sess.room.publish(track) {
			local = track
		}
	}

	for {
		pkt, _, err := remote.ReadRTP()
		if err != nil {
			return
		}
		util.Stats.AddRecv(len(pkt.Payload))

		if local == nil {
			continue
		}
		// ErrClosedPipe means no viewer is bound yet.
		if err := local.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			util.LogWarning("[%s] forwarding stopped: %v", sess.id[:8], err)
			local = nil
		} else if err == nil {
			util.Stats.AddSent(len(pkt.Payload))
		}
	}
}
