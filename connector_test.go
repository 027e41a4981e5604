package cortile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cortile "github.com/leukipp/cortile-addons"
)

const daemonScript = `#!/bin/sh
dir=$(dirname "$0")
case "$2" in
-method)
	echo '{"Process":1,"Time":2,"Type":"Result","Name":"Connector","Data":{"Success":true}}'
	;;
-property)
	printf '{"Process":1,"Time":2,"Type":"Property","Name":"%s","Data":{"Active":{"Id":42}}}\n' "$3"
	;;
-help)
	echo '{"Process":1,"Time":2,"Type":"Result","Name":"Help","Data":{"Message":"usage"}}'
	;;
-listen)
	while [ ! -f "$dir/go" ]; do sleep 0.05; done
	echo '{"Process":1,"Time":3,"Type":"Property","Name":"Workplace","Data":{"CurrentDesk":1}}'
	echo ''
	echo '{"Process":1,"Time":4,"Type":"Property","Name":"Windows","Data":{"Active":{"Id":7}}}'
	echo '{"Process":1,"Time":5,"Type":"Property","Name":"Disconnect","Data":{}}'
	exec sleep 30
	;;
esac
`

// fakeDaemon writes a shell script standing in for the daemon binary.
func fakeDaemon(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "cortile")
	require.NoError(t, os.WriteFile(path, []byte(daemonScript), 0o755))

	return path
}

// startLater lets the fake listener emit its events once the test had time
// to register its listeners.
func startLater(t *testing.T, binary string) {
	t.Helper()

	time.AfterFunc(200*time.Millisecond, func() {
		assert.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(binary), "go"), nil, 0o644))
	})
}

func newConnector(t *testing.T, opts ...cortile.Option) (cortile.Connector, string) {
	t.Helper()

	binary := fakeDaemon(t)

	opts = append([]cortile.Option{
		cortile.WithBinaryPath(binary),
		cortile.WithSignalHandling(false),
		cortile.WithExitFunc(func(code int) { t.Errorf("unexpected exit(%d)", code) }),
	}, opts...)

	c, err := cortile.New(context.Background(), opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c, binary
}

func TestNew_Operations(t *testing.T) {
	c, _ := newConnector(t)
	ctx := context.Background()

	assert.True(t, c.Connected())
	assert.True(t, c.Method(ctx, "ActionExecute", "layout_fullscreen", 0, 0))
	assert.Equal(t, "usage", c.Help(ctx))

	v, ok := c.Property(ctx, "Windows", false)
	require.True(t, ok)

	id, ok := v.Path("Active", "Id")
	require.True(t, ok)

	n, ok := id.Int()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)
}

func TestNew_MissingBinaryPath(t *testing.T) {
	exit := -1

	c, err := cortile.New(context.Background(),
		cortile.WithBinaryPath(filepath.Join(t.TempDir(), "missing")),
		cortile.WithSignalHandling(false),
		cortile.WithExitFunc(func(code int) { exit = code }),
	)

	require.Error(t, err)
	assert.Nil(t, c)
	assert.Equal(t, 1, exit)

	discoveryErr, ok := errors.AsType[*cortile.DiscoveryError](err)
	require.True(t, ok)
	assert.ErrorIs(t, discoveryErr, os.ErrNotExist)

	_, ok = errors.AsType[cortile.CortileError](err)
	assert.True(t, ok)
}

func TestEvents(t *testing.T) {
	c, binary := newConnector(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var names []string

	startLater(t, binary)

	for env := range cortile.Events(ctx, c, 8) {
		names = append(names, env.SourceName)
	}

	require.NoError(t, ctx.Err())
	assert.Equal(t, []string{"Workplace", "Windows", cortile.DisconnectName}, names)

	// The built-in observer cached the pushed values and closed on Disconnect.
	v, ok := c.Property(ctx, "Workplace", true)
	require.True(t, ok)
	assert.Equal(t, `{"CurrentDesk":1}`, v.String())
	assert.True(t, c.Closed())
	assert.NoError(t, c.Wait(ctx, 10*time.Millisecond))
}

func TestEvents_StopsOnContext(t *testing.T) {
	c, _ := newConnector(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for range cortile.Events(ctx, c, 1) {
		t.Fatal("no events expected")
	}

	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestEvents_StoppedIteratorDoesNotBlockDispatch(t *testing.T) {
	c, binary := newConnector(t)

	stale, cancelStale := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelStale()

	for range cortile.Events(stale, c, 1) {
		t.Fatal("no events expected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var names []string

	startLater(t, binary)

	for env := range cortile.Events(ctx, c, 8) {
		names = append(names, env.SourceName)
	}

	require.NoError(t, ctx.Err())
	assert.Equal(t, []string{"Workplace", "Windows", cortile.DisconnectName}, names)
}

func TestWithConnector(t *testing.T) {
	binary := fakeDaemon(t)

	var seen cortile.Connector

	err := cortile.WithConnector(context.Background(), func(c cortile.Connector) error {
		seen = c

		assert.True(t, c.Connected())

		return errors.New("callback failed")
	},
		cortile.WithBinaryPath(binary),
		cortile.WithSignalHandling(false),
	)

	require.EqualError(t, err, "callback failed")
	require.NotNil(t, seen)
	assert.True(t, seen.Closed())
}

func TestWithConnector_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cortile.WithConnector(ctx, func(cortile.Connector) error {
		t.Error("callback should not be called with cancelled context")

		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithConnector_DiscoveryFailure(t *testing.T) {
	err := cortile.WithConnector(context.Background(), func(cortile.Connector) error {
		t.Error("callback should not be called")

		return nil
	},
		cortile.WithBinaryPath(filepath.Join(t.TempDir(), "missing")),
		cortile.WithSignalHandling(false),
		cortile.WithExitFunc(func(int) {}),
	)

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to start connector: "))

	_, ok := errors.AsType[*cortile.DiscoveryError](err)
	assert.True(t, ok)
}
