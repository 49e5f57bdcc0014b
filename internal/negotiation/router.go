package negotiation

import (
	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/util"
)

// Router is the single dispatch point at the signaling boundary.
type Router struct {
	engine *Engine

	// Observe, when set, is told about every decoded envelope and the result
	// of dispatching it.
	Observe func(kind protocol.Kind, err error)
}

// NewRouter creates a Router dispatching to engine and its exchanger.
func NewRouter(engine *Engine) *Router {
	return &Router{engine: engine}
}

// HandleRaw decodes a raw envelope and dispatches it.
func (r *Router) HandleRaw(raw []byte) error {
	env, err := protocol.Decode(raw)
	if err != nil {
		return err
	}
	return r.Dispatch(env)
}

// Dispatch routes env by kind. Unknown kinds are ignored.
func (r *Router) Dispatch(env *protocol.Envelope) error {
	var err error
	switch {
	case env.Kind.IsOffer():
		err = r.engine.OnRemoteOffer(env.Kind, env.Data)
	case env.Kind == protocol.KindAnswer:
		err = r.engine.OnRemoteAnswer(env.Data)
	case env.Kind == protocol.KindCandidate:
		err = r.engine.Exchanger().OnRemoteCandidate(env.Data)
	default:
		util.LogDebug("[%s] ignoring unknown message type %q", r.engine.s.short(), env.Kind)
	}

	if r.Observe != nil {
		r.Observe(env.Kind, err)
	}
	return err
}
