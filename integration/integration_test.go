//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cortile "github.com/leukipp/cortile-addons"
)

// connect returns a connector to the running daemon, or skips the test if
// no daemon is registered on the session bus.
func connect(t *testing.T) cortile.Connector {
	t.Helper()

	c, err := cortile.New(context.Background(),
		cortile.WithSignalHandling(false),
		cortile.WithExitFunc(func(int) {}),
	)
	if _, ok := errors.AsType[*cortile.DiscoveryError](err); ok {
		t.Skipf("cortile daemon not running: %v", err)
	}

	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestDaemon_Properties(t *testing.T) {
	c := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.True(t, c.Connected())

	workplace, ok := c.Property(ctx, "Workplace", false)
	require.True(t, ok)

	_, ok = workplace.Get("CurrentDesk")
	assert.True(t, ok)

	_, ok = c.Property(ctx, "NoSuchProperty", false)
	assert.False(t, ok)
}

func TestDaemon_Help(t *testing.T) {
	c := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	assert.NotEmpty(t, c.Help(ctx))
}
