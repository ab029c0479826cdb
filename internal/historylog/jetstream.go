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

// Package historylog stores event histories in a NATS JetStream stream.
//
// All histories of a namespace share one stream. Each history is a subject
// under the stream's prefix and every append is a single message, so a save
// of several events is atomic. The message carries the version of its last
// event; optimistic concurrency uses the per-subject expected sequence.
package historylog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/DeluxeOwl/chronicle/version"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"
)

var _ event.Log = (*JetStream)(nil)

const (
	headerVersion = "Durabletask-Version"
	headerCount   = "Durabletask-Count"

	defaultStreamName    = "HISTORY"
	defaultSubjectPrefix = "history"
	defaultReadWait      = 2 * time.Second
)

var (
	ErrNoEvents         = errors.New("historylog: no events to append")
	ErrUnsupportedCheck = errors.New("historylog: only exact version checks are supported")
	ErrCorruptMessage   = errors.New("historylog: corrupt history message")
)

// JetStream is an event.Log over one JetStream stream.
type JetStream struct {
	js      jetstream.JetStream
	handle  jetstream.Stream
	stream  string
	prefix  string
	storage jetstream.StorageType
	// readWait bounds the wait for a message known to exist.
	readWait time.Duration
}

type Option func(*JetStream)

func WithStreamName(name string) Option {
	return func(j *JetStream) { j.stream = name }
}

// WithSubjectPrefix sets the subject prefix. History "wf-1" lives on
// "<prefix>.wf-1".
func WithSubjectPrefix(prefix string) Option {
	return func(j *JetStream) { j.prefix = prefix }
}

// WithStorage defaults to jetstream.FileStorage.
func WithStorage(storage jetstream.StorageType) Option {
	return func(j *JetStream) { j.storage = storage }
}

func WithReadWait(d time.Duration) Option {
	return func(j *JetStream) { j.readWait = d }
}

// New creates the history stream if needed.
func New(ctx context.Context, js jetstream.JetStream, opts ...Option) (*JetStream, error) {
	if js == nil {
		return nil, errors.New("historylog: nil jetstream context")
	}
	j := &JetStream{
		js:       js,
		stream:   defaultStreamName,
		prefix:   defaultSubjectPrefix,
		storage:  jetstream.FileStorage,
		readWait: defaultReadWait,
	}
	for _, opt := range opts {
		opt(j)
	}

	handle, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      j.stream,
		Subjects:  []string{j.prefix + ".>"},
		Storage:   j.storage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("historylog: ensure stream %s: %w", j.stream, err)
	}
	j.handle = handle
	return j, nil
}

// NewFromConn is New for a plain connection.
func NewFromConn(ctx context.Context, nc *nats.Conn, opts ...Option) (*JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("historylog: create jetstream context: %w", err)
	}
	return New(ctx, js, opts...)
}

type entry struct {
	Name string `msgpack:"n"`
	Data []byte `msgpack:"d"`
}

// AppendEvents appends events to the history id when it is still at the
// expected version.
func (j *JetStream) AppendEvents(ctx context.Context, id event.LogID, expected version.Check, events event.RawEvents) (version.Version, error) {
	if len(events) == 0 {
		return version.Zero, ErrNoEvents
	}
	exp, ok := expected.(version.CheckExact)
	if !ok {
		return version.Zero, ErrUnsupportedCheck
	}

	subject := j.subject(id)
	current, lastSeq, err := j.head(ctx, subject)
	if err != nil {
		return version.Zero, err
	}
	if current != version.Version(exp) {
		return version.Zero, version.NewConflictError(version.Version(exp), current)
	}

	msg, next, err := encode(subject, current, events)
	if err != nil {
		return version.Zero, err
	}

	_, err = j.js.PublishMsg(ctx, msg,
		jetstream.WithExpectStream(j.stream),
		jetstream.WithExpectLastSequencePerSubject(lastSeq),
	)
	if err != nil {
		var apiErr *jetstream.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
			actual, _, herr := j.head(ctx, subject)
			if herr != nil {
				actual = current + 1
			}
			return version.Zero, version.NewConflictError(version.Version(exp), actual)
		}
		return version.Zero, fmt.Errorf("historylog: append to %s: %w", id, err)
	}
	return next, nil
}

// ReadEvents yields the events of id selected by selector, oldest first.
func (j *JetStream) ReadEvents(ctx context.Context, id event.LogID, selector version.Selector) event.Records {
	return func(yield func(*event.Record, error) bool) {
		subject := j.subject(id)
		last, _, err := j.head(ctx, subject)
		if err != nil {
			yield(nil, err)
			return
		}
		if last == 0 || (selector.From > last) {
			return
		}

		cons, err := j.js.OrderedConsumer(ctx, j.stream, jetstream.OrderedConsumerConfig{
			FilterSubjects: []string{subject},
			DeliverPolicy:  jetstream.DeliverAllPolicy,
		})
		if err != nil {
			yield(nil, fmt.Errorf("historylog: read %s: %w", id, err))
			return
		}
		it, err := cons.Messages()
		if err != nil {
			yield(nil, fmt.Errorf("historylog: read %s: %w", id, err))
			return
		}
		defer it.Stop()

		for {
			msg, err := it.Next(jetstream.NextMaxWait(j.readWait))
			if err != nil {
				yield(nil, fmt.Errorf("historylog: read %s: %w", id, err))
				return
			}
			records, err := decode(id, msg.Headers(), msg.Data())
			if err != nil {
				yield(nil, err)
				return
			}
			for _, r := range records {
				if r.Version() < selector.From {
					continue
				}
				if !yield(r, nil) {
					return
				}
			}
			if len(records) > 0 && records[len(records)-1].Version() >= last {
				return
			}
		}
	}
}

// head returns the current version of subject and the stream sequence of
// its last message. Both are zero for an empty history.
func (j *JetStream) head(ctx context.Context, subject string) (version.Version, uint64, error) {
	msg, err := j.handle.GetLastMsgForSubject(ctx, subject)
	if err != nil {
		if errors.Is(err, jetstream.ErrMsgNotFound) {
			return version.Zero, 0, nil
		}
		return version.Zero, 0, fmt.Errorf("historylog: head of %s: %w", subject, err)
	}
	v, err := parseVersion(msg.Header)
	if err != nil {
		return version.Zero, 0, err
	}
	return v, msg.Sequence, nil
}

func (j *JetStream) subject(id event.LogID) string {
	return j.prefix + "." + Token(string(id))
}

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_", "/", "_")

// Token turns a history id into a single subject token.
func Token(id string) string {
	return tokenReplacer.Replace(id)
}

func encode(subject string, current version.Version, events event.RawEvents) (*nats.Msg, version.Version, error) {
	batch := make([]entry, 0, len(events))
	for _, raw := range events {
		batch = append(batch, entry{Name: raw.EventName(), Data: raw.Data()})
	}
	data, err := msgpack.Marshal(batch)
	if err != nil {
		return nil, version.Zero, fmt.Errorf("historylog: encode batch: %w", err)
	}
	next := current + version.Version(len(events))
	return &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			headerVersion: []string{strconv.FormatUint(uint64(next), 10)},
			headerCount:   []string{strconv.Itoa(len(events))},
		},
	}, next, nil
}

func decode(id event.LogID, header nats.Header, data []byte) ([]*event.Record, error) {
	last, err := parseVersion(header)
	if err != nil {
		return nil, err
	}
	var batch []entry
	if err := msgpack.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMessage, err)
	}
	if n, err := strconv.Atoi(header.Get(headerCount)); err != nil || n != len(batch) || version.Version(n) > last {
		return nil, fmt.Errorf("%w: count header does not match %d events", ErrCorruptMessage, len(batch))
	}
	first := last - version.Version(len(batch)) + 1
	records := make([]*event.Record, len(batch))
	for i, e := range batch {
		records[i] = event.NewRecord(first+version.Version(i), id, e.Name, e.Data)
	}
	return records, nil
}

func parseVersion(header nats.Header) (version.Version, error) {
	raw := header.Get(headerVersion)
	if raw == "" {
		return version.Zero, fmt.Errorf("%w: missing version header", ErrCorruptMessage)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return version.Zero, fmt.Errorf("%w: %v", ErrCorruptMessage, err)
	}
	return version.Version(v), nil
}
