// Package transport implements the wire encodings of the protocol: message
// serialization for ceremony and e2e payloads, and the HTTP authentication
// header codecs.
package transport

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Serializer is an interface that provides methods to Marshal/Unmarshal messages.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Checker is implemented by messages that can validate themselves.
type Checker interface {
	Check() error
}

// JSONSerializer provides a Serializer that uses json Marshal/Unmarshal.
// Binary message fields travel Base64-standard, the json default for byte slices.
type JSONSerializer struct{}

// Marshal wraps json.Marshal
func (self JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal wraps json.Unmarshal
func (self JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

var _ Serializer = JSONSerializer{}

// CBORSerializer provides a Serializer that uses default cbor Marshal/Unmarshal
type CBORSerializer struct{}

// Marshal wraps cbor.Marshal
func (self CBORSerializer) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal wraps cbor.Unmarshal
func (self CBORSerializer) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

var _ Serializer = CBORSerializer{}

// CheckedSerializer wraps a Serializer ensuring that marshaled/unmarshaled
// messages implementing Checker are validated on both sides of the wire.
type CheckedSerializer struct {
	Serializer
}

// Marshal validates v if it implements Checker, then serializes it.
func (self CheckedSerializer) Marshal(v any) ([]byte, error) {
	if c, validate := v.(Checker); validate {
		err := c.Check()
		if nil != err {
			return nil, wrapFlagError(err, ValidationError, "invalid outbound message")
		}
	}
	srzmsg, err := self.Serializer.Marshal(v)
	if nil != err {
		return nil, wrapFlagError(err, SerializationError, "failed marshalling msg")
	}
	return srzmsg, nil
}

// Unmarshal deserializes data into v, then validates v if it implements Checker.
func (self CheckedSerializer) Unmarshal(data []byte, v any) error {
	err := self.Serializer.Unmarshal(data, v)
	if nil != err {
		return wrapFlagError(err, SerializationError, "failed unmarshalling msg")
	}
	if c, validate := v.(Checker); validate {
		err = c.Check()
		if nil != err {
			return wrapFlagError(err, ValidationError, "invalid inbound message")
		}
	}
	return nil
}
