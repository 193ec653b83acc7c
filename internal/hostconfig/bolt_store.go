package hostconfig

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"certer/internal/certdir"
	"certer/internal/models"
)

var bucketHosts = []byte("hosts")

// BoltStore keeps every host document in a single bbolt database, keyed by
// hostname.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHosts)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating hosts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(ctx context.Context, hostname string, profile models.SubjectProfile) error {
	if err := certdir.ValidateName(hostname); err != nil {
		return err
	}

	data, err := encode(profile)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHosts).Put([]byte(hostname), data)
	})
}

func (s *BoltStore) Load(ctx context.Context, hostname string) (*models.SubjectProfile, error) {
	if err := certdir.ValidateName(hostname); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketHosts).Get([]byte(hostname))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decode(data)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
