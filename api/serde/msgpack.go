// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serde

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var _ BinarySerde = (*MsgpackSerde)(nil)

// MsgpackSerde implements BinarySerde with MessagePack, the default format
// for histories, tasks and results.
//
// Struct fields without a msgpack tag fall back to their json tag, so user
// types encode under the same keys in both formats. Map keys are sorted, so
// equal values always encode to equal bytes. Integers decoded into an
// interface come back as int64 or uint64 whatever their wire width.
type MsgpackSerde struct{}

func (m *MsgpackSerde) Format() string { return FormatMsgpack }

// SerializeBinary serializes a Go value to MessagePack binary format.
func (m *MsgpackSerde) SerializeBinary(value any) ([]byte, error) {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("msgpack serialization failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeBinary deserializes MessagePack binary data into a Go value.
func (m *MsgpackSerde) DeserializeBinary(data []byte, valuePtr any) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(valuePtr); err != nil {
		return fmt.Errorf("msgpack deserialization failed: %w", err)
	}
	return nil
}
