package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec frames messages for one connection.
type Codec interface {
	Name() string
	// FrameType is the websocket message type the codec writes.
	FrameType() int
	Encode(msg Message) ([]byte, error)
	Decode(b []byte) (Frame, error)
}

// CodecFor returns the codec registered under name. Unknown names fall back
// to JSON so old clients keep working.
func CodecFor(name string) Codec {
	if name == "msgpack" {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}

// JSONCodec writes text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string   { return "json" }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

func (JSONCodec) Encode(msg Message) ([]byte, error) {
	if msg.Event == "" {
		return nil, fmt.Errorf("encode: empty event name")
	}
	return json.Marshal(msg)
}

func (JSONCodec) Decode(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, fmt.Errorf("decode: empty frame")
	}
	var env struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return Frame{}, fmt.Errorf("decode json envelope: %w", err)
	}
	if env.Event == "" {
		return Frame{}, fmt.Errorf("decode: missing event name")
	}
	return Frame{Event: env.Event, Data: env.Data}, nil
}

// MsgpackCodec writes binary frames. Struct fields use their json tags so
// both codecs produce the same field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string   { return "msgpack" }
func (MsgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (MsgpackCodec) Encode(msg Message) ([]byte, error) {
	if msg.Event == "" {
		return nil, fmt.Errorf("encode: empty event name")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Decode(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, fmt.Errorf("decode: empty frame")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)

	var env map[string]any
	if err := dec.Decode(&env); err != nil {
		return Frame{}, fmt.Errorf("decode msgpack envelope: %w", err)
	}
	event, _ := env["event"].(string)
	if event == "" {
		return Frame{}, fmt.Errorf("decode: missing event name")
	}
	return Frame{Event: event, Data: env["data"]}, nil
}
