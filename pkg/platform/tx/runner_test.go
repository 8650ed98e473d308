package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "safedesk/pkg/domain-errors"
)

func TestLockRunner(t *testing.T) {
	t.Run("propagates callback error", func(t *testing.T) {
		r := NewLockRunner()
		boom := errors.New("boom")
		err := r.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rejects cancelled context", func(t *testing.T) {
		r := NewLockRunner()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := r.RunInTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, called)
	})

	t.Run("serializes same shard key", func(t *testing.T) {
		r := NewLockRunner()
		ctx := WithShardKey(context.Background(), "case-1")

		var mu sync.Mutex
		active, maxActive := 0, 0
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.RunInTx(ctx, func(context.Context) error {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()
					time.Sleep(time.Millisecond)
					mu.Lock()
					active--
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxActive)
	})

	t.Run("applies default deadline", func(t *testing.T) {
		r := NewLockRunner()
		_ = r.RunInTx(context.Background(), func(txCtx context.Context) error {
			_, ok := txCtx.Deadline()
			assert.True(t, ok)
			return nil
		})
	})
}

func TestFrom_WithoutTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}
