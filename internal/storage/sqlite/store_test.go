package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "aieni.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "aieni_registrations")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "aieni_registrations", []byte(`[{"id":"REG-1"}]`)))
	require.NoError(t, s.Set(ctx, "aieni_registrations", []byte(`[]`)))

	got, ok, err := s.Get(ctx, "aieni_registrations")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err = reopened.Get(ctx, "aieni_registrations")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))
}

func TestMutateAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aieni.db")
	a, err := Open(ctx, path)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(ctx, path)
	require.NoError(t, err)
	defer b.Close()

	var wg sync.WaitGroup
	for i := range 20 {
		s := a
		if i%2 == 1 {
			s = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Mutate(ctx, "k", func(v []byte, _ bool) ([]byte, error) {
				return append(v, 'x'), nil
			}))
		}()
	}
	wg.Wait()

	got, ok, err := a.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 20)
}

func TestMutateCallbackErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "k", []byte("before")))

	stop := errors.New("stop")
	err = s.Mutate(ctx, "k", func([]byte, bool) ([]byte, error) { return []byte("after"), stop })
	require.ErrorIs(t, err, stop)

	got, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "before", string(got))

	require.NoError(t, s.Mutate(ctx, "k", func(v []byte, ok bool) ([]byte, error) {
		assert.True(t, ok)
		return []byte("after"), nil
	}), "the connection is usable after a rollback")
}
