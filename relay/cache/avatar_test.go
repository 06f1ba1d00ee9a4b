package cache

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNode = "0x" + strings.Repeat("a", 64)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	gets    int
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) (*StoredObject, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	data, ok := s.objects[key]
	if !ok {
		return nil, false, nil
	}
	return &StoredObject{
		Body:        io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: ContentTypePNG,
	}, true, nil
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func TestGetOrCreateMissThenHit(t *testing.T) {
	store := newFakeStore()
	generated := []byte("\x89PNG fresh bytes")
	var calls int32
	c := New(store, func(ctx context.Context, nodeId string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return generated, nil
	})

	// miss: generates, stores, returns the fresh bytes
	obj, err := c.GetOrCreate(context.Background(), testNode)
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, generated, body)
	assert.Equal(t, int64(len(generated)), obj.Size)
	assert.Equal(t, ContentTypePNG, obj.ContentType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, store.puts)

	// hit: served from the store, no further generation
	obj, err = c.GetOrCreate(context.Background(), testNode)
	require.NoError(t, err)
	body, err = io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, generated, body)
	assert.Equal(t, int64(len(generated)), obj.Size)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must not regenerate")
	assert.Equal(t, 1, store.puts)
}

func TestGetOrCreateGenerationFailure(t *testing.T) {
	store := newFakeStore()
	wantErr := errors.New("generation blew up")
	c := New(store, func(ctx context.Context, nodeId string) ([]byte, error) {
		return nil, wantErr
	})

	_, err := c.GetOrCreate(context.Background(), testNode)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Empty(t, store.objects, "failed generation must not store anything")
}

func TestGetOrCreatePutFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("bucket unavailable")
	c := New(store, func(ctx context.Context, nodeId string) ([]byte, error) {
		return []byte("\x89PNG"), nil
	})

	_, err := c.GetOrCreate(context.Background(), testNode)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.putErr)
}

func TestGetOrCreateSurvivesCallerCancel(t *testing.T) {
	store := newFakeStore()
	started := make(chan struct{})
	c := New(store, func(ctx context.Context, nodeId string) ([]byte, error) {
		close(started)
		// the caller that triggered generation may already be gone
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return []byte("\x89PNG detached"), nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var obj *StoredObject
	var err error
	go func() {
		defer close(done)
		obj, err = c.GetOrCreate(ctx, testNode)
	}()

	<-started
	cancel()
	<-done

	require.NoError(t, err, "cancelling the requester must not abort the shared generation")
	body, readErr := io.ReadAll(obj.Body)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("\x89PNG detached"), body)
	assert.Equal(t, 1, store.puts, "the generated object must still reach the store")
}

func TestGetOrCreateSingleFlight(t *testing.T) {
	store := newFakeStore()
	var calls int32
	release := make(chan struct{})
	c := New(store, func(ctx context.Context, nodeId string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("\x89PNG shared"), nil
	})

	const workers = 4
	var wg sync.WaitGroup
	results := make([][]byte, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			obj, err := c.GetOrCreate(context.Background(), testNode)
			if err != nil {
				t.Error(err)
				return
			}
			results[i], _ = io.ReadAll(obj.Body)
		}(i)
	}

	// let every worker reach the flight group before the generator finishes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent misses must share one generation")
	for i := 0; i < workers; i++ {
		assert.Equal(t, []byte("\x89PNG shared"), results[i])
	}
}
