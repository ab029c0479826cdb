package serde

import (
	"errors"
	"fmt"
	"strings"
)

// BinarySerde encodes payloads, history events and results. It matches the
// serializer interface of the chronicle event log so one value serves both.
type BinarySerde interface {
	SerializeBinary(value any) ([]byte, error)
	DeserializeBinary(data []byte, valuePtr any) error
}

const (
	FormatMsgpack = "msgpack"
	FormatJSON    = "json"
)

var ErrUnknownFormat = errors.New("unknown serde format")

// ForFormat returns the serde registered under name, ignoring case. An empty
// name selects MessagePack.
func ForFormat(name string) (BinarySerde, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatMsgpack:
		return &MsgpackSerde{}, nil
	case FormatJSON:
		return &JsonSerde{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
