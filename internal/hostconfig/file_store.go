package hostconfig

import (
	"context"
	"errors"
	"os"

	"certer/internal/certdir"
	"certer/internal/models"
)

// FileStore keeps one <hostname>.conf JSON document per host next to the
// host's key material.
type FileStore struct {
	dir *certdir.Dir
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir *certdir.Dir) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(ctx context.Context, hostname string, profile models.SubjectProfile) error {
	if err := certdir.ValidateName(hostname); err != nil {
		return err
	}

	data, err := encode(profile)
	if err != nil {
		return err
	}

	return s.dir.WriteFile(certdir.HostConfigFile(hostname), data)
}

func (s *FileStore) Load(ctx context.Context, hostname string) (*models.SubjectProfile, error) {
	if err := certdir.ValidateName(hostname); err != nil {
		return nil, err
	}

	data, err := s.dir.ReadFile(certdir.HostConfigFile(hostname))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return decode(data)
}

func (s *FileStore) Close() error {
	return nil
}
