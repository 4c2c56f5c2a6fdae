// Package kv provides the key-value store behind the norms catalog. Keys
// are hierarchical paths such as Key{"norm", "0001"} encoded with a
// separator byte (default ':'). Values are opaque bytes; the Object helpers
// store msgpack-encoded structs.
//
// Two implementations are included: Badger (on disk or in memory) and
// Memory, a plain map for tests.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path. Segments must not contain the separator.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Append returns a new key with segs added.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

// Last returns the final segment, or "" for an empty key.
func (k Key) Last() string {
	if len(k) == 0 {
		return ""
	}
	return k[len(k)-1]
}

// Entry is a key-value pair.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path keys.
type Store interface {
	// Get returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	Set(ctx context.Context, key Key, value []byte) error

	// Delete succeeds when the key is absent.
	Delete(ctx context.Context, key Key) error

	// List iterates over the entries under prefix in lexicographic key
	// order. An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet stores entries atomically.
	BatchSet(ctx context.Context, entries []Entry) error

	Close() error
}

// DefaultSeparator joins key segments.
const DefaultSeparator byte = ':'

// Options holds settings shared by the implementations.
type Options struct {
	Separator byte
}

func (o *Options) sep() string {
	if o != nil && o.Separator != 0 {
		return string(o.Separator)
	}
	return string(DefaultSeparator)
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, o.sep()))
}

func (o *Options) decode(b []byte) Key {
	return strings.Split(string(b), o.sep())
}

// prefix returns the encoded scan prefix for k. A non-empty prefix ends
// with the separator so "a:b" does not match "a:bc".
func (o *Options) prefix(k Key) []byte {
	if len(k) == 0 {
		return nil
	}
	return append(o.encode(k), o.sep()...)
}

// GetObject decodes the msgpack value at key into v.
func GetObject(ctx context.Context, s Store, key Key, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// SetObject stores v msgpack-encoded at key.
func SetObject(ctx context.Context, s Store, key Key, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// ListObjects decodes every value under prefix as a T.
func ListObjects[T any](ctx context.Context, s Store, prefix Key) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for e, err := range s.List(ctx, prefix) {
			var v T
			if err == nil {
				if uerr := msgpack.Unmarshal(e.Value, &v); uerr != nil {
					err = fmt.Errorf("kv: decode %s: %w", e.Key, uerr)
				}
			}
			if !yield(v, err) {
				return
			}
		}
	}
}
