// Package objectstore keeps scores, voice models and rendered artifacts in a NATS
// JetStream object store bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ArtifactStore implements the core.ObjectStore interface using NATS JetStream.
type ArtifactStore struct {
	bucket string
	store  jetstream.ObjectStore
}

// New creates the bucket, or binds to it when it already exists.
func New(ctx context.Context, js jetstream.JetStream, bucketName string) (*ArtifactStore, error) {
	store, err := js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Scores, voices and renders for the %s bucket.", bucketName),
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = js.ObjectStore(ctx, bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &ArtifactStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Bucket returns the bucket name.
func (s *ArtifactStore) Bucket() string {
	return s.bucket
}

// Download retrieves an object from the bucket.
func (s *ArtifactStore) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: '%s' in bucket '%s'", ErrObjectNotFound, key, s.bucket)
		}

		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	return data, nil
}

// Upload saves an object to the bucket, replacing any previous object with the same key.
func (s *ArtifactStore) Upload(ctx context.Context, key string, data []byte) error {
	_, err := s.store.PutBytes(ctx, key, data)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}

// Delete removes an object from the bucket.
func (s *ArtifactStore) Delete(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}
