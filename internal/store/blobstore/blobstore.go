// Package blobstore persists a resource's archived full text and any other
// large binary sidecar (spec §3: "archive blob reference"). Two dialects:
// an in-memory map for the embedded target, and Supabase Storage for the
// server target (storage-go is in the teacher's dependency graph, pulled
// in transitively by its supabase-go client; promoted here to a direct,
// concretely wired dependency).
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	storage_go "github.com/supabase-community/storage-go"

	"neo-alexandria/internal/errorkit"
)

// Store persists and retrieves archive blobs by opaque key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the embedded-dialect blob store.
type MemoryStore struct {
	mu   sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), data...)
	s.blobs[key] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, errorkit.NotFoundf("blob %s not found", key)
	}
	return data, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// SupabaseStore is the server-dialect blob store: every resource's
// archived text lands in one bucket, keyed by resource id.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(projectRef, serviceKey, bucket string) *SupabaseStore {
	url := fmt.Sprintf("https://%s.supabase.co/storage/v1", projectRef)
	return &SupabaseStore{
		client: storage_go.NewClient(url, serviceKey, nil),
		bucket: bucket,
	}
}

var _ Store = (*SupabaseStore)(nil)

func (s *SupabaseStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "blob_put", "supabase storage upload failed", err).WithRetryable(true)
	}
	return nil
}

func (s *SupabaseStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, errorkit.Wrap(errorkit.Upstream, "blob_get", "supabase storage download failed", err)
	}
	return data, nil
}

func (s *SupabaseStore) Delete(_ context.Context, key string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{key})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "blob_delete", "supabase storage remove failed", err)
	}
	return nil
}
