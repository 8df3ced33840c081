package profiles

import (
	"context"
	"testing"

	"github.com/layer-3/walletgate/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProfileStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProfileStore()

	p, err := s.ResolveByAddress(ctx, "0xABC")
	require.NoError(t, err)
	assert.Nil(t, p)

	created, err := s.Create(ctx, core.Profile{Address: "0xABC", Username: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "0xabc", created.Address)
	assert.False(t, created.CreatedAt.IsZero())

	p, err = s.ResolveByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.Username)

	_, err = s.Create(ctx, core.Profile{Address: "0xabc", Username: "bob"})
	assert.ErrorIs(t, err, core.ErrProfileExists)
}
