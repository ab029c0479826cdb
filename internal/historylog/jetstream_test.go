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

package historylog

import (
	"testing"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/DeluxeOwl/chronicle/version"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	assert.Equal(t, "order_42", Token("order.42"))
	assert.Equal(t, "a_b_c_d", Token("a b*c>d"))
	assert.Equal(t, "wf-1#2", Token("wf-1#2"))
}

func TestEncodeDecodeBatch(t *testing.T) {
	events := event.RawEvents{
		event.NewRaw("started", []byte("a")),
		event.NewRaw("scheduled", []byte("b")),
		event.NewRaw("completed", []byte("c")),
	}

	msg, next, err := encode("history.wf-1", version.Version(4), events)
	require.NoError(t, err)
	assert.Equal(t, version.Version(7), next)
	assert.Equal(t, "history.wf-1", msg.Subject)
	assert.Equal(t, "7", msg.Header.Get(headerVersion))

	records, err := decode("wf-1", msg.Header, msg.Data)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, version.Version(5+i), r.Version())
		assert.Equal(t, event.LogID("wf-1"), r.LogID())
		assert.Equal(t, events[i].EventName(), r.EventName())
		assert.Equal(t, events[i].Data(), r.Data())
	}
}

func TestDecodeRejectsCorruptMessages(t *testing.T) {
	msg, _, err := encode("history.wf-1", 0, event.RawEvents{event.NewRaw("started", nil)})
	require.NoError(t, err)

	t.Run("missing version", func(t *testing.T) {
		_, err := decode("wf-1", nats.Header{headerCount: []string{"1"}}, msg.Data)
		assert.ErrorIs(t, err, ErrCorruptMessage)
	})
	t.Run("count mismatch", func(t *testing.T) {
		h := nats.Header{headerVersion: []string{"1"}, headerCount: []string{"2"}}
		_, err := decode("wf-1", h, msg.Data)
		assert.ErrorIs(t, err, ErrCorruptMessage)
	})
	t.Run("garbage body", func(t *testing.T) {
		_, err := decode("wf-1", msg.Header, []byte{0xc1})
		assert.ErrorIs(t, err, ErrCorruptMessage)
	})
}
