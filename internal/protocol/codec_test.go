package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvelopeRoundTrip verifies that an encoded envelope decodes back to the
// same kind/payload pair for every kind.
func TestEnvelopeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		env  *Envelope
	}{
		{"offer", &Envelope{Kind: KindOffer, Data: `{"type":"offer","sdp":"v=0\r\n"}`}},
		{"viewer offer", &Envelope{Kind: KindViewerOffer, Data: `{"type":"offer","sdp":"v=0\r\n"}`}},
		{"answer", &Envelope{Kind: KindAnswer, Data: `{"type":"answer","sdp":"v=0\r\n"}`}},
		{"candidate", &Envelope{Kind: KindCandidate, Data: `{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}`}},
		{"empty data", &Envelope{Kind: KindCandidate, Data: ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Encode(tc.env)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.env, decoded)
		})
	}
}

// TestEncodeWireShape pins the field names used on the wire.
func TestEncodeWireShape(t *testing.T) {
	raw, err := Encode(&Envelope{Kind: KindViewerOffer, Data: `{"a":1}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"viewerOffer","data":"{\"a\":1}"}`, string(raw))
}

func TestEncodeRejectsEmptyKind(t *testing.T) {
	_, err := Encode(&Envelope{Data: "x"})
	assert.Error(t, err)
}

// TestDecodeMalformed verifies that structurally invalid envelopes fail with
// ErrDecode.
func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"array", `[1,2]`},
		{"missing type", `{"data":"x"}`},
		{"empty type", `{"type":"","data":"x"}`},
		{"numeric type", `{"type":3,"data":"x"}`},
		{"object data", `{"type":"answer","data":{"sdp":"v=0"}}`},
		{"numeric data", `{"type":"candidate","data":12}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

// TestDecodeUnknownKind verifies that unknown kinds decode successfully so
// that the router can ignore them.
func TestDecodeUnknownKind(t *testing.T) {
	env, err := Decode([]byte(`{"type":"bye","data":"x","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, Kind("bye"), env.Kind)
	assert.False(t, env.Kind.Known())
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindOffer.IsOffer())
	assert.True(t, KindViewerOffer.IsOffer())
	assert.False(t, KindAnswer.IsOffer())
	assert.False(t, KindCandidate.IsOffer())

	for _, k := range []Kind{KindOffer, KindViewerOffer, KindAnswer, KindCandidate} {
		assert.True(t, k.Known(), k)
	}
}
