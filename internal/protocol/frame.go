package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame is an outgoing message that is encoded at most once per format,
// no matter how many connections it is sent to. A Frame is not safe for
// concurrent encoding; the tick goroutine builds and encodes it.
type Frame struct {
	Envelope
	text   []byte
	binary []byte
}

// NewFrame wraps data under action.
func NewFrame(action string, data interface{}) *Frame {
	if data == nil {
		data = Empty{}
	}
	return &Frame{Envelope: Envelope{Action: action, Data: data}}
}

// JSON returns the text encoding of the frame.
func (f *Frame) JSON() ([]byte, error) {
	if f.text != nil {
		return f.text, nil
	}
	b, err := json.Marshal(f.Envelope)
	if err != nil {
		return nil, err
	}
	f.text = b
	return b, nil
}

// MsgPack returns the binary encoding of the frame. Field names follow
// the json tags so both encodings decode to the same shape.
func (f *Frame) MsgPack() ([]byte, error) {
	if f.binary != nil {
		return f.binary, nil
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(f.Envelope); err != nil {
		return nil, err
	}
	f.binary = buf.Bytes()
	return f.binary, nil
}

// DecodeMsgPack decodes a binary frame into v using the json field names.
func DecodeMsgPack(b []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
