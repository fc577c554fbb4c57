package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by GetOne, Update and Remove when no record exists
// under the given collection and id.
var ErrNotFound = errors.New("store: record not found")

// TreeStore is the path-addressed document store the core runs against.
// Every operation is a remote round trip and can fail; callers wrap each
// call site rather than letting transport errors escape unhandled. There is
// no transactional primitive across calls.
type TreeStore interface {
	// Insert writes record under an auto-generated id and returns it.
	Insert(collection string, record any) (string, error)

	// Put writes record under a caller-chosen id, creating or replacing.
	// Used for keyed single-slot collections such as current positions.
	Put(collection, id string, record any) error

	// GetAll returns every record in the collection keyed by id.
	GetAll(collection string) (map[string]json.RawMessage, error)

	// GetOne returns a single record or ErrNotFound.
	GetOne(collection, id string) (json.RawMessage, error)

	// Update merges record into the stored document. Fields present in
	// record overwrite stored fields; absent fields are left untouched.
	Update(collection, id string, record any) error

	// Remove deletes the record. Removing an absent id returns ErrNotFound.
	Remove(collection, id string) error

	// Listen registers onChange to fire after any mutation under the
	// collection. The callback carries no diff; listeners re-read the
	// collection themselves. Callbacks are delivered on a goroutine owned
	// by the store, never on the mutating caller's goroutine.
	Listen(collection string, onChange func()) (ListenerHandle, error)
}

// ListenerHandle detaches a listener. Close is idempotent.
type ListenerHandle interface {
	Close()
}

const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// NewPushID generates a 20-character collision-resistant id over the
// store's url-safe alphabet.
func NewPushID() string {
	var buf [20]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = pushChars[int(b)%len(pushChars)]
	}
	return string(buf[:])
}

// mergeInto overlays the fields of record onto stored and returns the merged
// document. Both sides must be JSON objects.
func mergeInto(stored json.RawMessage, record any) (json.RawMessage, error) {
	patch, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	base := map[string]json.RawMessage{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &base); err != nil {
			return nil, err
		}
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, err
	}
	for k, v := range overlay {
		base[k] = v
	}
	return json.Marshal(base)
}
