package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (f *flakyStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error) {
	f.calls++
	if f.calls <= f.failures {
		return Object{}, errors.New("transient")
	}
	return f.MemoryStore.Put(ctx, folder, name, contentType, data)
}

func fastRetry(s Store) *RetryStore {
	r := WithRetry(s)
	r.Backoff = time.Millisecond
	return r
}

func TestRetryStoreRecovers(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	obj, err := fastRetry(flaky).Put(context.Background(), "f", "a.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
	assert.NotEmpty(t, obj.ID)
}

func TestRetryStoreGivesUp(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	_, err := fastRetry(flaky).Put(context.Background(), "f", "a.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after all retries")
	assert.Equal(t, 4, flaky.calls)
}

func TestRetryStoreNoBackoffAfterLastAttempt(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	r := WithRetry(flaky)
	r.MaxRetries = 2
	r.Backoff = 100 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := r.Put(ctx, "f", "a.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after all retries")
	assert.Equal(t, 2, flaky.calls)
	assert.Less(t, time.Since(start), 250*time.Millisecond, "one backoff between two attempts")
}

func TestRetryStoreStopsOnCancel(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	r := WithRetry(flaky)
	r.Backoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Put(ctx, "f", "a.jpg", "image/jpeg", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetryStoreTrashPassesThrough(t *testing.T) {
	mem := NewMemoryStore()
	obj, err := mem.Put(context.Background(), "", "a", "text/plain", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, fastRetry(mem).Trash(context.Background(), obj.ID))
	assert.Equal(t, []string{obj.ID}, mem.Trashed)
}

func TestFileIDFromURL(t *testing.T) {
	id := "1sR4NPomjADI5lmum-Bx6MAxvmTk1ydxV"
	assert.Equal(t, id, FileIDFromURL("https://drive.google.com/file/d/"+id+"/view?usp=drivesdk"))
	assert.Equal(t, id, FileIDFromURL("https://drive.google.com/uc?export=view&id="+id))
	assert.Empty(t, FileIDFromURL("https://example.com/short"))

	mem := NewMemoryStore()
	obj, _ := mem.Put(context.Background(), "", "a", "text/plain", nil)
	assert.Equal(t, obj.ID, FileIDFromURL(obj.DirectURL))
}

func TestIDFromURL(t *testing.T) {
	gcs := &GCSStore{bucketName: "pmd-media"}
	tests := []struct {
		name  string
		store Store
		url   string
		want  string
	}{
		{"gcs object", gcs, "https://storage.googleapis.com/pmd-media/docs/Circular 12.pdf", "docs/Circular 12.pdf"},
		{"gcs escaped", gcs, "https://storage.googleapis.com/pmd-media/docs/Circular%2012.pdf", "docs/Circular 12.pdf"},
		{"gcs photo", gcs, "https://storage.googleapis.com/pmd-media/profiles/employee_123456_1700000000000.jpg", "profiles/employee_123456_1700000000000.jpg"},
		{"gcs other bucket", gcs, "https://storage.googleapis.com/other/docs/a.pdf", ""},
		{"gcs bucket root", gcs, "https://storage.googleapis.com/pmd-media/", ""},
		{"drive view", &DriveStore{}, "https://drive.google.com/file/d/1sR4NPomjADI5lmum-Bx6MAxvmTk1ydxV/view", "1sR4NPomjADI5lmum-Bx6MAxvmTk1ydxV"},
		{"drive short", &DriveStore{}, "https://example.com/short", ""},
		{"retry wrapper", WithRetry(gcs), "https://storage.googleapis.com/pmd-media/a.pdf", "a.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.store.IDFromURL(tt.url))
		})
	}
}
