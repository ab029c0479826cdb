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

package serde_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ngnhng/durabletask/api/serde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID    string   `json:"id" msgpack:"id"`
	Qty   int      `json:"qty" msgpack:"qty"`
	Items []string `json:"items" msgpack:"items"`
}

func serdes() []struct {
	name  string
	serde serde.BinarySerde
} {
	return []struct {
		name  string
		serde serde.BinarySerde
	}{
		{"JSON", &serde.JsonSerde{}},
		{"MessagePack", &serde.MsgpackSerde{}},
	}
}

// roundTrip pushes v through the serde into an untyped value, the way
// history payloads come back from storage.
func roundTrip(t *testing.T, s serde.BinarySerde, v any) any {
	t.Helper()
	data, err := s.SerializeBinary(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, s.DeserializeBinary(data, &out))
	return out
}

func TestTypeConverter_RestoresTypesAfterStorage(t *testing.T) {
	for _, tc := range serdes() {
		t.Run(tc.name, func(t *testing.T) {
			conv := serde.NewTypeConverter(tc.serde)

			got, err := conv.ConvertToType(roundTrip(t, tc.serde, 42), reflect.TypeOf(0))
			require.NoError(t, err)
			assert.Equal(t, 42, got.Interface())

			want := order{ID: "o-1", Qty: 3, Items: []string{"a", "b"}}
			got, err = conv.ConvertToType(roundTrip(t, tc.serde, want), reflect.TypeOf(order{}))
			require.NoError(t, err)
			assert.Equal(t, want, got.Interface())

			got, err = conv.ConvertToType(roundTrip(t, tc.serde, want), reflect.TypeOf(&order{}))
			require.NoError(t, err)
			assert.Equal(t, &want, got.Interface())
		})
	}
}

func TestTypeConverter_NilBecomesZero(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.MsgpackSerde{})
	got, err := conv.ConvertToType(nil, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "", got.Interface())
}

func TestTypeConverter_RejectsLossyFloat(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.JsonSerde{})
	_, err := conv.ConvertToType(1.5, reflect.TypeOf(0))
	require.Error(t, err)
}

func TestTypeConverter_ConvertSlice(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.JsonSerde{})
	vals, err := conv.ConvertSlice([]any{float64(1), float64(2)}, reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, int64(2), vals[1].Interface())
}

func TestTypeConverter_NilPointerTarget(t *testing.T) {
	conv := serde.NewTypeConverter(nil)
	got, err := conv.ConvertToType(nil, reflect.TypeOf(&order{}))
	require.NoError(t, err)
	assert.True(t, got.IsNil())
}

func TestTypeConverter_Pointers(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.MsgpackSerde{})

	got, err := conv.ConvertToType(int64(7), reflect.TypeOf(new(int)))
	require.NoError(t, err)
	assert.Equal(t, 7, *got.Interface().(*int))

	n := 9
	got, err = conv.ConvertToType(&n, reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Interface())

	var missing *int
	got, err = conv.ConvertToType(missing, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "", got.Interface())
}

func TestTypeConverter_NumbersKeepTheirValue(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.MsgpackSerde{})

	tests := []struct {
		name   string
		value  any
		target reflect.Type
	}{
		{"number to string", int64(65), reflect.TypeOf("")},
		{"overflow", int64(300), reflect.TypeOf(int8(0))},
		{"negative to unsigned", int64(-1), reflect.TypeOf(uint(0))},
		{"huge unsigned to signed", uint64(1 << 63), reflect.TypeOf(int64(0))},
		{"fraction to unsigned", 2.5, reflect.TypeOf(uint32(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conv.ConvertToType(tt.value, tt.target)
			assert.Error(t, err)
		})
	}

	got, err := conv.ConvertToType(uint64(200), reflect.TypeOf(uint8(0)))
	require.NoError(t, err)
	assert.Equal(t, uint8(200), got.Interface())
}

func TestTypeConverter_JSONNumbers(t *testing.T) {
	s := &serde.JsonSerde{}
	conv := serde.NewTypeConverter(s)

	big := int64(1<<60 + 1)
	raw := roundTrip(t, s, big)
	require.IsType(t, json.Number(""), raw)

	got, err := conv.ConvertToType(raw, reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, big, got.Interface())

	got, err = conv.ConvertToType(json.Number("2.5"), reflect.TypeOf(float32(0)))
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), got.Interface())

	got, err = conv.ConvertToType(json.Number("12"), reflect.TypeOf(new(uint16)))
	require.NoError(t, err)
	assert.Equal(t, uint16(12), *got.Interface().(*uint16))

	got, err = conv.ConvertToType(json.Number("12"), reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "12", got.Interface())

	_, err = conv.ConvertToType(json.Number("1.5"), reflect.TypeOf(0))
	assert.Error(t, err)
}

func TestTypeConverter_Assign(t *testing.T) {
	conv := serde.NewTypeConverter(&serde.MsgpackSerde{})
	want := order{ID: "o-2", Qty: 1, Items: []string{"c"}}

	var out order
	require.NoError(t, conv.Assign(roundTrip(t, &serde.MsgpackSerde{}, want), &out))
	assert.Equal(t, want, out)

	assert.Error(t, conv.Assign(1, out))
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name   string
		want   serde.BinarySerde
		format string
	}{
		{"", &serde.MsgpackSerde{}, serde.FormatMsgpack},
		{"msgpack", &serde.MsgpackSerde{}, serde.FormatMsgpack},
		{" JSON ", &serde.JsonSerde{}, serde.FormatJSON},
	}
	for _, tt := range tests {
		s, err := serde.ForFormat(tt.name)
		require.NoError(t, err)
		assert.IsType(t, tt.want, s)
		assert.Equal(t, tt.format, s.(interface{ Format() string }).Format())
	}

	_, err := serde.ForFormat("protobuf")
	assert.ErrorIs(t, err, serde.ErrUnknownFormat)
}

// receipt has json tags only.
type receipt struct {
	OrderID string `json:"order_id"`
	Cents   int    `json:"cents,omitempty"`
}

func TestMsgpackSerde_FallsBackToJSONTags(t *testing.T) {
	s := &serde.MsgpackSerde{}

	raw := roundTrip(t, s, receipt{OrderID: "o-3"})
	assert.Equal(t, map[string]any{"order_id": "o-3"}, raw)

	var back receipt
	data, err := s.SerializeBinary(receipt{OrderID: "o-3", Cents: 250})
	require.NoError(t, err)
	require.NoError(t, s.DeserializeBinary(data, &back))
	assert.Equal(t, receipt{OrderID: "o-3", Cents: 250}, back)
}

func TestMsgpackSerde_StableEncoding(t *testing.T) {
	s := &serde.MsgpackSerde{}
	m := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		m[k] = k
	}

	first, err := s.SerializeBinary(m)
	require.NoError(t, err)
	for range 20 {
		again, err := s.SerializeBinary(m)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, again))
	}
}

func TestMsgpackSerde_LooseIntegers(t *testing.T) {
	s := &serde.MsgpackSerde{}
	assert.Equal(t, int64(5), roundTrip(t, s, int8(5)))
	assert.Equal(t, int64(-3), roundTrip(t, s, -3))
}
