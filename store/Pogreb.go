/*
File Name:  Pogreb.go

On-disk key/value store backed by Pogreb, used as the metadata cache so
catalog scans don't re-hash unchanged files on every restart.
*/

package store

import (
	"io"
	"log"
	"sync"

	"github.com/akrylysov/pogreb"
)

// PogrebStore is a key/value store backed by an on-disk Pogreb database.
type PogrebStore struct {
	mutex    *sync.Mutex
	filename string
	db       *pogreb.DB
}

// NewPogrebStore creates a properly initialized Pogreb store. The database
// is created on first use if filename does not yet exist.
func NewPogrebStore(filename string) (store *PogrebStore, err error) {
	pogreb.SetLogger(log.New(io.Discard, "", 0))

	db, err := pogreb.Open(filename, nil)
	if err != nil {
		return nil, err
	}

	return &PogrebStore{
		mutex:    &sync.Mutex{},
		filename: filename,
		db:       db,
	}, nil
}

// Set stores the key/value pair.
func (store *PogrebStore) Set(key []byte, data []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.db.Put(key, data)
}

// Get returns the value for the key if present.
func (store *PogrebStore) Get(key []byte) (data []byte, found bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	value, err := store.db.Get(key)
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}

// Delete deletes a key/value pair.
func (store *PogrebStore) Delete(key []byte) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.db.Delete(key)
}

// Close releases the underlying database file.
func (store *PogrebStore) Close() error {
	return store.db.Close()
}
