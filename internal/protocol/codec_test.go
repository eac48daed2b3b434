package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"thermite-server/internal/game"
)

func TestDecodeClientMsgpack(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{"move", Move{Direction: game.West, Sequence: 42}},
		{"bomb", PlaceBomb{Sequence: 7}},
		{"extract", Extract{Sequence: 9}},
		{"ping", Ping{Timestamp: 123456789}},
	}
	for _, tt := range tests {
		raw, err := EncodeClient(tt.msg)
		if err != nil {
			t.Fatalf("%s: encode: %v", tt.name, err)
		}
		got, err := DecodeClient(raw)
		if err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if got != tt.msg {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.msg, got)
		}
	}
}

func TestDecodeClientJSONWireShape(t *testing.T) {
	got, err := DecodeClientJSON([]byte(`{"t":"Move","d":{"direction":"North","sequence":5}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mv, ok := got.(Move)
	if !ok {
		t.Fatalf("expected Move, got %T", got)
	}
	if mv.Direction != game.North || mv.Sequence != 5 {
		t.Errorf("unexpected move %+v", mv)
	}
}

func TestDecodeClientErrors(t *testing.T) {
	if _, err := DecodeClientJSON([]byte(`{"t":"Teleport","d":{}}`)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if _, err := DecodeClientJSON([]byte(`{"t":"Move","d":{"direction":"Up","sequence":1}}`)); err == nil {
		t.Error("expected error for bad direction")
	}
	if _, err := DecodeClient([]byte{0xc1}); err == nil {
		t.Error("expected error for garbage msgpack")
	}
	if _, err := DecodeClientJSON([]byte(`not json`)); err == nil {
		t.Error("expected error for garbage json")
	}
}

func TestServerEnvelopeMsgpack(t *testing.T) {
	pos := game.Pos(3, 4)
	pid := uuid.New()
	ack := CommandAck{Sequence: 11, Success: true, Position: &pos}

	raw, err := EncodeServer(ack)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// raw envelope keys must be the short wire tags
	var generic map[string]any
	if err := msgpack.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("generic decode: %v", err)
	}
	if generic["t"] != TypeCommandAck {
		t.Errorf("expected t=%s, got %v", TypeCommandAck, generic["t"])
	}
	d, ok := generic["d"].(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", generic["d"])
	}
	if _, ok := d["error"]; ok {
		t.Error("empty error should be omitted")
	}

	got, err := DecodeServer(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	back, ok := got.(CommandAck)
	if !ok || back.Sequence != 11 || !back.Success || back.Position == nil || *back.Position != pos {
		t.Errorf("unexpected ack %+v", got)
	}

	raw, err = EncodeServer(Welcome{PlayerID: pid, TickRateMs: 50})
	if err != nil {
		t.Fatalf("encode welcome: %v", err)
	}
	got, err = DecodeServer(raw)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if w, ok := got.(Welcome); !ok || w.PlayerID != pid || w.TickRateMs != 50 {
		t.Errorf("unexpected welcome %+v", got)
	}
}

func TestServerEnvelopeJSON(t *testing.T) {
	raw, err := EncodeServerJSON(MatchEnded{Reason: ReasonTimerExpired})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["t"] != TypeMatchEnded {
		t.Errorf("expected t=%s, got %v", TypeMatchEnded, m["t"])
	}
	if d := m["d"].(map[string]any); d["reason"] != "TimerExpired" {
		t.Errorf("expected reason TimerExpired, got %v", d["reason"])
	}

	got, err := DecodeServerJSON(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me, ok := got.(MatchEnded); !ok || me.Reason != ReasonTimerExpired {
		t.Errorf("unexpected %+v", got)
	}
}

func TestStateViews(t *testing.T) {
	id := uuid.New()
	players := []game.Player{*game.NewPlayer(id, game.Pos(1, 2), 100, 1)}
	ps := PlayerStates(players)
	if len(ps) != 1 || ps[0].ID != id || ps[0].Position != game.Pos(1, 2) || !ps[0].IsAlive || ps[0].Health != 100 {
		t.Errorf("unexpected player state %+v", ps)
	}

	b := game.NewBomb(id, game.Pos(1, 2), 60, 2)
	bs := BombStates([]game.Bomb{*b}, 50)
	if len(bs) != 1 || bs[0].TimerMs != 3000 || bs[0].OwnerID != id {
		t.Errorf("unexpected bomb state %+v", bs)
	}
}
