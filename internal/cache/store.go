// Package cache remembers split points of previously seen assets, keyed by
// a digest of their bytes.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Digest identifies an asset by content.
type Digest [sha256.Size]byte

// DigestOf hashes buf.
func DigestOf(buf []byte) Digest {
	return sha256.Sum256(buf)
}

// Entry is what is remembered about one asset. Size guards against digest
// reuse across assets of different length.
type Entry struct {
	SplitPoint int
	Size       int
	Strategy   string
	StoredAt   time.Time
}

// Store implements the split-point cache using Badger.
type Store struct {
	ttl time.Duration
	db  *badger.DB
	log *slog.Logger
}

// badgerLogger adapts slog for Badger's logger interface.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(f, "args", v)
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(f, "args", v)
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.log.Debug(f, "args", v)
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.log.Debug(f, "args", v)
}

// Open opens or creates the cache at path. An empty path keeps the cache in
// memory. ttl <= 0 keeps entries forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	log := slog.With("component", "split-cache")

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{log: log}).
		WithValueLogFileSize(1<<26 - 1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		err = db.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db:  db,
		ttl: ttl,
		log: log,
	}, nil
}

// Put stores e under d.
func (s *Store) Put(d Digest, e Entry) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(e); err != nil {
		return err
	}

	be := badger.NewEntry(d[:], value.Bytes())
	if s.ttl > 0 {
		be = be.WithTTL(s.ttl)
	}
	if err := tx.SetEntry(be); err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns the entry for d. ok is false when nothing is cached.
func (s *Store) Get(d Digest) (e Entry, ok bool, err error) {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(d[:])
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	valb, err := item.ValueCopy(nil)
	if err != nil {
		return Entry{}, false, err
	}
	if err := gob.NewDecoder(bytes.NewReader(valb)).Decode(&e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Delete forgets d. Deleting an absent key is not an error.
func (s *Store) Delete(d Digest) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(d[:])
	})
}

// Close shuts down the Badger database.
func (s *Store) Close() error {
	return s.db.Close()
}
