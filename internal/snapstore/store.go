// Package snapstore persists queue snapshots in Pebble, one JSON document
// per queue under ns/<namespace>/fq/<queue>/snapshot. It is encoding-level
// only: callers hand it their snapshot value and it round-trips the JSON.
package snapstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pebblestore "github.com/ssokolow/snakebyte/internal/storage/pebble"
)

// ErrNotFound reports that no snapshot exists for the queue.
var ErrNotFound = errors.New("snapstore: snapshot not found")

// Store reads and writes queue snapshots.
type Store struct {
	db *pebblestore.DB
}

// New wraps an open Pebble database.
func New(db *pebblestore.DB) *Store {
	return &Store{db: db}
}

// Namespace and queue names must not contain '/', which the key layout
// reserves. The scheduler validates names before they reach here; this is
// the storage-side backstop.
func validName(s string) error {
	if s == "" || strings.ContainsRune(s, '/') {
		return fmt.Errorf("snapstore: invalid name %q", s)
	}
	return nil
}

func snapshotKey(namespace, queue string) []byte {
	return []byte("ns/" + namespace + "/fq/" + queue + "/snapshot")
}

// Save marshals the snapshot value and writes it under the queue's key.
func (s *Store) Save(namespace, queue string, snap interface{}) error {
	if err := validName(namespace); err != nil {
		return err
	}
	if err := validName(queue); err != nil {
		return err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapstore: encode %s/%s: %w", namespace, queue, err)
	}
	return s.db.Set(snapshotKey(namespace, queue), b)
}

// Load unmarshals the stored snapshot into the given value.
func (s *Store) Load(namespace, queue string, into interface{}) error {
	if err := validName(namespace); err != nil {
		return err
	}
	if err := validName(queue); err != nil {
		return err
	}
	b, err := s.db.Get(snapshotKey(namespace, queue))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("snapstore: decode %s/%s: %w", namespace, queue, err)
	}
	return nil
}

// Delete removes the queue's snapshot. Deleting a missing snapshot is not
// an error.
func (s *Store) Delete(namespace, queue string) error {
	if err := validName(namespace); err != nil {
		return err
	}
	if err := validName(queue); err != nil {
		return err
	}
	return s.db.Delete(snapshotKey(namespace, queue))
}

// ListQueues returns the queue names with a stored snapshot in the
// namespace, in lexical order.
func (s *Store) ListQueues(namespace string) ([]string, error) {
	if err := validName(namespace); err != nil {
		return nil, err
	}
	prefix := "ns/" + namespace + "/fq/"
	var queues []string
	err := s.db.ScanPrefix([]byte(prefix), func(key, _ []byte) bool {
		rest := strings.TrimPrefix(string(key), prefix)
		if name, ok := strings.CutSuffix(rest, "/snapshot"); ok && !strings.ContainsRune(name, '/') {
			queues = append(queues, name)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return queues, nil
}

// ListNamespaces returns every namespace with at least one stored snapshot.
func (s *Store) ListNamespaces() ([]string, error) {
	var namespaces []string
	seen := map[string]struct{}{}
	err := s.db.ScanPrefix([]byte("ns/"), func(key, _ []byte) bool {
		rest := strings.TrimPrefix(string(key), "ns/")
		ns, _, ok := strings.Cut(rest, "/")
		if !ok {
			return true
		}
		if _, dup := seen[ns]; !dup {
			seen[ns] = struct{}{}
			namespaces = append(namespaces, ns)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return namespaces, nil
}
