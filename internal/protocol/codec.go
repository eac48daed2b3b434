package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownType is returned for an envelope whose tag is not recognised
var ErrUnknownType = errors.New("unknown message type")

// Envelope wraps every message with its type tag
type Envelope struct {
	T string `json:"t"`
	D any    `json:"d,omitempty"`
}

// inEnvelope defers decoding the payload until the tag is known
type inEnvelope struct {
	T string             `json:"t"`
	D msgpack.RawMessage `json:"d"`
}

type inEnvelopeJSON struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

// Struct fields are tagged for JSON; msgpack reads the same tags.
const structTag = "json"

func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(structTag)
	return dec.Decode(v)
}

// EncodeServer encodes a server message as a MessagePack envelope
func EncodeServer(msg ServerMessage) ([]byte, error) {
	return marshalMsgpack(Envelope{T: msg.Type(), D: msg})
}

// EncodeServerJSON encodes a server message as a JSON envelope
func EncodeServerJSON(msg ServerMessage) ([]byte, error) {
	return json.Marshal(Envelope{T: msg.Type(), D: msg})
}

// EncodeClient encodes a client message as a MessagePack envelope
func EncodeClient(msg ClientMessage) ([]byte, error) {
	return marshalMsgpack(Envelope{T: msg.Type(), D: msg})
}

// EncodeClientJSON encodes a client message as a JSON envelope
func EncodeClientJSON(msg ClientMessage) ([]byte, error) {
	return json.Marshal(Envelope{T: msg.Type(), D: msg})
}

// DecodeClient decodes a MessagePack client envelope
func DecodeClient(data []byte) (ClientMessage, error) {
	var env inEnvelope
	if err := unmarshalMsgpack(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return decodeClient(env.T, env.D, unmarshalMsgpack)
}

// DecodeClientJSON decodes a JSON client envelope
func DecodeClientJSON(data []byte) (ClientMessage, error) {
	var env inEnvelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return decodeClient(env.T, env.D, json.Unmarshal)
}

// DecodeServer decodes a MessagePack server envelope
func DecodeServer(data []byte) (ServerMessage, error) {
	var env inEnvelope
	if err := unmarshalMsgpack(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return decodeServer(env.T, env.D, unmarshalMsgpack)
}

// DecodeServerJSON decodes a JSON server envelope
func DecodeServerJSON(data []byte) (ServerMessage, error) {
	var env inEnvelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return decodeServer(env.T, env.D, json.Unmarshal)
}

type unmarshalFunc func([]byte, any) error

func payload[T any](raw []byte, unmarshal unmarshalFunc) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

func decodeClient(t string, raw []byte, u unmarshalFunc) (ClientMessage, error) {
	switch t {
	case TypeMove:
		return payload[Move](raw, u)
	case TypePlaceBomb:
		return payload[PlaceBomb](raw, u)
	case TypeExtract:
		return payload[Extract](raw, u)
	case TypePing:
		return payload[Ping](raw, u)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
}

func decodeServer(t string, raw []byte, u unmarshalFunc) (ServerMessage, error) {
	switch t {
	case TypeWelcome:
		return payload[Welcome](raw, u)
	case TypeStateUpdate:
		return payload[StateUpdate](raw, u)
	case TypeCommandAck:
		return payload[CommandAck](raw, u)
	case TypePlayerDied:
		return payload[PlayerDied](raw, u)
	case TypePlayerDamaged:
		return payload[PlayerDamaged](raw, u)
	case TypeBombDetonation:
		return payload[BombDetonation](raw, u)
	case TypeMatchEnded:
		return payload[MatchEnded](raw, u)
	case TypePong:
		return payload[Pong](raw, u)
	case TypeError:
		return payload[Error](raw, u)
	case TypeLobbyCountdown:
		return payload[LobbyCountdown](raw, u)
	case TypePlayerDisconnected:
		return payload[PlayerDisconnected](raw, u)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
}
