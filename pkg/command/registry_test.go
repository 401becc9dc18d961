package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryIsIdempotentPerCommandKey(t *testing.T) {
	reg := newTestRegistry()

	cmdA, err := NewBuilder(reg, "shared", func(ctx context.Context) (int, error) { return 1, nil }).Build()
	assert.NoError(t, err)
	cmdB, err := NewBuilder(reg, "shared", func(ctx context.Context) (int, error) { return 2, nil }).Build()
	assert.NoError(t, err)

	assert.Same(t, cmdA.Metrics(), cmdB.Metrics())
	assert.Same(t, cmdA.Breaker(), cmdB.Breaker())
}

func TestRegistrySharesPoolAcrossCommandsInSameGroup(t *testing.T) {
	reg := newTestRegistry()

	cmdA, err := NewBuilder(reg, "a", func(ctx context.Context) (int, error) { return 0, nil }).
		WithGroupKey("shared-group").Build()
	assert.NoError(t, err)
	cmdB, err := NewBuilder(reg, "b", func(ctx context.Context) (int, error) { return 0, nil }).
		WithGroupKey("shared-group").Build()
	assert.NoError(t, err)

	assert.Equal(t, cmdA.PoolKey(), cmdB.PoolKey())
	assert.Same(t, cmdA.workerPool, cmdB.workerPool)

	members := reg.CommandsInGroup("shared-group")
	assert.ElementsMatch(t, []string{"a", "b"}, members)
}
