package server

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputMessageToInput(t *testing.T) {
	cases := []struct {
		msg  InputMessage
		kind InputKind
	}{
		{InputMessage{Type: "move", X: 0.5}, InputMove},
		{InputMessage{Type: "BOOST", On: true}, InputBoost},
		{InputMessage{Type: "grind"}, InputGrind},
		{InputMessage{Type: "detach"}, InputDetach},
		{InputMessage{Type: "jump"}, InputDetach},
		{InputMessage{Type: "ready", On: true}, InputReady},
	}
	for _, c := range cases {
		in, ok := c.msg.ToInput("p1")
		require.True(t, ok, c.msg.Type)
		assert.Equal(t, c.kind, in.Kind, c.msg.Type)
		assert.Equal(t, PlayerID("p1"), in.PlayerID)
		assert.Equal(t, c.msg.On, in.On)
	}

	_, ok := InputMessage{Type: "teleport"}.ToInput("p1")
	assert.False(t, ok)
}

func TestMoveInputClampedToUnitLength(t *testing.T) {
	in, ok := InputMessage{Type: "move", X: 3, Z: 4, Seq: 7}.ToInput("p1")
	require.True(t, ok)
	assert.InDelta(t, 1, in.Move.Len(), 1e-9)
	assert.True(t, in.Move.ApproxEqual(mgl64.Vec3{0.6, 0, 0.8}))
	assert.Equal(t, int64(7), in.Seq)

	in, _ = InputMessage{Type: "move", X: 0.3}.ToInput("p1")
	assert.True(t, in.Move.ApproxEqual(mgl64.Vec3{0.3, 0, 0}))
}
