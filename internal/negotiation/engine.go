package negotiation

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/util"
)

// Config describes the session an Engine negotiates.
type Config struct {
	ID   string // log prefix; a random UUID when empty
	Role Role

	// Tracks is the streamer's media attachment, bound once by Start.
	Tracks []webrtc.TrackLocal

	// ReceiveKind is the media kind a viewer asks for. Defaults to video.
	ReceiveKind webrtc.RTPCodecType

	// PrepareAnswer, when set, runs after a remote offer is decoded and
	// before it is applied. The relay attaches forwarded media here.
	PrepareAnswer func(kind protocol.Kind) error
}

// Engine drives the offer/answer exchange of one Session to completion.
// Its methods must be called from the session's Loop.
type Engine struct {
	s     *Session
	media MediaBinding
	out   Outbox
	ex    *CandidateExchanger

	receiveKind   webrtc.RTPCodecType
	prepareAnswer func(kind protocol.Kind) error
}

// NewEngine creates an idle session and the engine/exchanger pair that owns it.
func NewEngine(cfg Config, media MediaBinding, out Outbox) *Engine {
	s := newSession(cfg.ID, cfg.Role, cfg.Tracks)

	kind := cfg.ReceiveKind
	if kind == 0 {
		kind = webrtc.RTPCodecTypeVideo
	}

	return &Engine{
		s:             s,
		media:         media,
		out:           out,
		ex:            &CandidateExchanger{s: s, media: media, out: out},
		receiveKind:   kind,
		prepareAnswer: cfg.PrepareAnswer,
	}
}

func (e *Engine) Session() *Session              { return e.s }
func (e *Engine) Exchanger() *CandidateExchanger { return e.ex }

// Start originates the session's offer. A streamer first binds its media
// attachment; a viewer declares its receive intent. Only valid while idle.
func (e *Engine) Start() error {
	if e.s.state != StateIdle {
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, e.s.state)
	}

	var kind protocol.Kind
	switch e.s.role {
	case RoleStreamer:
		for e.s.attached < len(e.s.tracks) {
			track := e.s.tracks[e.s.attached]
			if err := e.media.AddLocalTrack(track); err != nil {
				return fmt.Errorf("attach %s track: %w", track.Kind(), err)
			}
			e.s.attached++
		}
		kind = protocol.KindOffer

	case RoleViewer:
		if !e.s.intentDeclared {
			if err := e.media.DeclareReceiveIntent(e.receiveKind); err != nil {
				return fmt.Errorf("declare %s receive intent: %w", e.receiveKind, err)
			}
			e.s.intentDeclared = true
		}
		kind = protocol.KindViewerOffer

	default:
		return fmt.Errorf("%w: role %s does not originate offers", ErrInvalidState, e.s.role)
	}

	offer, err := e.media.CreateLocalDescription(webrtc.SDPTypeOffer)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := e.s.setLocal(offer); err != nil {
		return err
	}
	e.s.transition(StateLocalOfferSent)
	util.LogDebug("[%s] %s offer created, state=%s", e.s.short(), e.s.role, e.s.state)

	return e.send(kind, offer)
}

// OnRemoteAnswer applies the answer to our offer. Only valid after Start;
// anywhere else the answer is rejected and the session is left untouched.
func (e *Engine) OnRemoteAnswer(data string) error {
	if e.s.state != StateLocalOfferSent {
		return fmt.Errorf("%w: answer in state %s", ErrUnexpectedMessage, e.s.state)
	}

	answer, err := protocol.DecodeDescription(data, webrtc.SDPTypeAnswer)
	if err != nil {
		return err
	}
	if err := e.media.ApplyRemoteDescription(answer); err != nil {
		return fmt.Errorf("apply remote answer: %w", err)
	}
	if err := e.s.setRemote(answer); err != nil {
		return err
	}

	e.ex.drain()
	e.s.transition(StateConnecting)
	util.LogInfo("[%s] answer applied, state=%s", e.s.short(), e.s.state)
	return nil
}

// OnRemoteOffer answers a peer's offer. Only valid while idle.
func (e *Engine) OnRemoteOffer(kind protocol.Kind, data string) error {
	if e.s.state != StateIdle {
		return fmt.Errorf("%w: %s in state %s", ErrUnexpectedMessage, kind, e.s.state)
	}

	offer, err := protocol.DecodeDescription(data, webrtc.SDPTypeOffer)
	if err != nil {
		return err
	}
	if e.prepareAnswer != nil {
		if err := e.prepareAnswer(kind); err != nil {
			return fmt.Errorf("prepare answer to %s: %w", kind, err)
		}
	}
	if err := e.media.ApplyRemoteDescription(offer); err != nil {
		return fmt.Errorf("apply remote %s: %w", kind, err)
	}
	if err := e.s.setRemote(offer); err != nil {
		return err
	}
	e.s.transition(StateRemoteOfferReceived)
	e.ex.drain()

	answer, err := e.media.CreateLocalDescription(webrtc.SDPTypeAnswer)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := e.s.setLocal(answer); err != nil {
		return err
	}
	e.s.transition(StateConnecting)
	util.LogInfo("[%s] answered %s, state=%s", e.s.short(), kind, e.s.state)

	return e.send(protocol.KindAnswer, answer)
}

func (e *Engine) send(kind protocol.Kind, desc webrtc.SessionDescription) error {
	data, err := protocol.EncodeDescription(desc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := e.out.Send(&protocol.Envelope{Kind: kind, Data: data}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}
