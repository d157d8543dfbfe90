package lifecycle

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/proposer/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("proposal-%d", i)
		_ = mgr.WithLock(ctx, id, func(context.Context) error { return nil })
		_ = mgr.Delete(ctx, id)
	}

	assert.Empty(t, mgr.locks, "lock entries must be released once unused")
}
