// Package boltstore persists corpus snapshots in a single bbolt file. The
// wdist CLI uses it as its local workspace.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"go.etcd.io/bbolt"
)

var bucketCorpora = []byte("corpora")

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCorpora); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketCorpora, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, snap corpus.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot %q: %w", snap.Name, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCorpora).Put([]byte(snap.Name), data)
	})
}

// LoadAll returns snapshots in key order, which is name order.
func (s *Store) LoadAll(ctx context.Context) ([]corpus.Snapshot, error) {
	var snaps []corpus.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCorpora).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var snap corpus.Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("decoding corpus %s: %w", k, err)
			}
			snaps = append(snaps, snap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCorpora).Delete([]byte(name))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
