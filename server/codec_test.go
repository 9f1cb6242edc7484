package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"marblerail/rail"
)

func TestParseCodec(t *testing.T) {
	assert.Equal(t, CodecMsgpack, ParseCodec("msgpack"))
	assert.Equal(t, CodecJSON, ParseCodec("json"))
	assert.Equal(t, CodecJSON, ParseCodec(""))
	assert.Equal(t, CodecJSON, ParseCodec("protobuf"))
}

func TestMsgpackSnapshotCarriesGrinds(t *testing.T) {
	r := testRoom(t)
	fc := newFakeConn()
	fc.codec = CodecMsgpack
	r.JoinPlayer("alice", fc)
	r.OnInput(Input{PlayerID: "alice", Kind: InputGrind})
	r.Step()

	var raw []byte
	select {
	case raw = <-fc.sendCh:
	default:
		t.Fatal("no snapshot sent")
	}

	var msg StateMessage
	require.NoError(t, msgpack.Unmarshal(raw, &msg))
	assert.Equal(t, "state", msg.Type)
	require.Len(t, msg.Grinds, 1)
	assert.Equal(t, "line", msg.Grinds[0].RailID)
	assert.Equal(t, rail.BodyID("alice"), msg.Grinds[0].BodyID)
	assert.NotEmpty(t, msg.Grinds[0].SessionID)
	require.Len(t, msg.Events, 1)
	assert.Equal(t, "attach", msg.Events[0].Kind)
}

func TestBroadcastEncodesOncePerCodec(t *testing.T) {
	r := testRoom(t)
	a, b, c := newFakeConn(), newFakeConn(), newFakeConn()
	c.codec = CodecMsgpack
	r.JoinPlayer("a", a)
	r.JoinPlayer("b", b)
	r.JoinPlayer("c", c)

	r.Step()

	ja, jb, mc := <-a.sendCh, <-b.sendCh, <-c.sendCh
	assert.Equal(t, ja, jb)
	assert.NotEqual(t, ja, mc)
	assert.Equal(t, byte('{'), ja[0])
}
