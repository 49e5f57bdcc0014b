package negotiation

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/util"
)

// CandidateExchanger trickles local ICE candidates to the peer and applies the
// peer's candidates, independent of the offer/answer phase. Remote candidates
// are never applied before a remote description exists.
type CandidateExchanger struct {
	s     *Session
	media MediaBinding
	out   Outbox
}

// OnLocalCandidateDiscovered forwards a freshly gathered candidate. A nil
// candidate marks the end of gathering and is not forwarded.
func (x *CandidateExchanger) OnLocalCandidateDiscovered(c *webrtc.ICECandidate) error {
	if c == nil {
		util.LogDebug("[%s] ICE gathering complete", x.s.short())
		return nil
	}

	data, err := protocol.EncodeCandidate(c.ToJSON())
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	if err := x.out.Send(&protocol.Envelope{Kind: protocol.KindCandidate, Data: data}); err != nil {
		return fmt.Errorf("send candidate: %w", err)
	}
	return nil
}

// OnRemoteCandidate applies the peer's candidate, or queues it until the
// remote description is applied.
func (x *CandidateExchanger) OnRemoteCandidate(data string) error {
	c, err := protocol.DecodeCandidate(data)
	if err != nil {
		return err
	}

	if x.s.remote == nil {
		x.s.remoteCandidates = append(x.s.remoteCandidates, c)
		util.LogDebug("[%s] candidate queued (%d pending)", x.s.short(), len(x.s.remoteCandidates))
		return nil
	}

	if err := x.media.AddRemoteCandidate(c); err != nil {
		return fmt.Errorf("add remote candidate: %w", err)
	}
	return nil
}

// drain applies every queued candidate in arrival order. A candidate the
// media binding rejects is logged; the rest are still applied.
func (x *CandidateExchanger) drain() {
	queue := x.s.remoteCandidates
	x.s.remoteCandidates = nil

	for _, c := range queue {
		if err := x.media.AddRemoteCandidate(c); err != nil {
			util.LogWarning("[%s] queued candidate rejected: %v", x.s.short(), err)
		}
	}
	if len(queue) > 0 {
		util.LogDebug("[%s] %d queued candidates applied", x.s.short(), len(queue))
	}
}
