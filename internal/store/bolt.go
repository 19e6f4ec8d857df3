package store

import (
	"encoding/json"
	"strings"

	bolt "go.etcd.io/bbolt"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

var bucketName = []byte("resources")

// BoltStore persists resources to a BoltDB file on disk. Watchers live
// in memory only; a restarted process starts with a clean subscriber
// list over the same data.
type BoltStore struct {
	watchHub
	db *bolt.DB
}

// NewBoltStore opens (or creates) a BoltDB database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Create(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt.Get([]byte(key)) != nil {
			return ErrAlreadyExists
		}
		return bkt.Put([]byte(key), raw)
	})
	if err != nil {
		return err
	}

	b.notify(event(v1alpha1.EventAdded, key, value))
	return nil
}

func (b *BoltStore) Get(key string, target interface{}) error {
	return b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, target)
	})
}

func (b *BoltStore) Update(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return bkt.Put([]byte(key), raw)
	})
	if err != nil {
		return err
	}

	b.notify(event(v1alpha1.EventModified, key, value))
	return nil
}

func (b *BoltStore) Delete(key string) error {
	var obj interface{}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		raw := bkt.Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		// Capture the object before deletion so watchers receive it.
		_ = json.Unmarshal(raw, &obj)
		return bkt.Delete([]byte(key))
	})
	if err != nil {
		return err
	}

	b.notify(event(v1alpha1.EventDeleted, key, obj))
	return nil
}

func (b *BoltStore) List(prefix string, factory func() interface{}) ([]interface{}, error) {
	var results []interface{}

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		pfx := []byte(prefix)

		for k, v := c.Seek(pfx); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			obj := factory()
			if err := json.Unmarshal(v, obj); err != nil {
				return err
			}
			results = append(results, obj)
		}
		return nil
	})
	return results, err
}

func (b *BoltStore) Watch(prefix string) (<-chan v1alpha1.WatchEvent, func()) {
	return b.subscribe(prefix)
}

func (b *BoltStore) Close() error {
	b.closeAll()
	return b.db.Close()
}
