package protocol

import (
	"encoding/json"
	"fmt"
)

// wireEnvelope mirrors Envelope with optional fields so that missing and
// mistyped members can be told apart during validation.
type wireEnvelope struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes an Envelope for transmission on the signaling channel.
func Encode(env *Envelope) ([]byte, error) {
	if env.Kind == "" {
		return nil, fmt.Errorf("encode envelope: empty type")
	}
	return json.Marshal(env)
}

// Decode parses and validates a raw envelope. The type must be a non-empty
// string and data, when present, must be a JSON string. Unknown kinds are
// not an error here; the router decides what to do with them.
func Decode(raw []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrDecode, err)
	}
	if w.Type == nil || *w.Type == "" {
		return nil, fmt.Errorf("%w: envelope: missing type", ErrDecode)
	}

	env := &Envelope{Kind: Kind(*w.Type)}
	if len(w.Data) > 0 && string(w.Data) != "null" {
		if err := json.Unmarshal(w.Data, &env.Data); err != nil {
			return nil, fmt.Errorf("%w: envelope %q: data is not a string", ErrDecode, env.Kind)
		}
	}
	return env, nil
}
