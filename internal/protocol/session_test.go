package protocol

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leukipp/cortile-addons/internal/config"
	"github.com/leukipp/cortile-addons/internal/errors"
	"github.com/leukipp/cortile-addons/internal/message"
)

// staticResolver resolves to a fixed path or error.
type staticResolver struct {
	path string
	err  error
}

func (r *staticResolver) Resolve(context.Context) (string, error) {
	return r.path, r.err
}

// fakeBinary writes an executable shell script standing in for the daemon.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "cortile")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	return path
}

func newConnectedSession(t *testing.T, body string, convention config.ExitConvention) (*Session, string) {
	t.Helper()

	binary := fakeBinary(t, body)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewSession(log, &staticResolver{path: binary}, convention)

	env := s.Connect(context.Background())
	require.Equal(t, message.KindResult, env.Kind)
	require.True(t, env.Success())

	return s, binary
}

const daemonScript = `
case "$2" in
-method)
	if [ "$3" = "Foo" ]; then
		echo '{"Process":123,"Time":1000,"Type":"Result","Name":"Connector","Data":{"Success":true}}'
		exit 0
	fi
	printf '{"Process":1,"Time":2,"Type":"Result","Name":"Connector","Data":{"Success":true,"Args":"%s"}}\n' "$*"
	;;
-property)
	if [ "$3" = "X" ]; then
		echo boom >&2
		exit 1
	fi
	printf '{"Process":1,"Time":2,"Type":"Property","Name":"%s","Data":{"Value":7}}\n' "$3"
	;;
-help)
	echo '{"Process":1,"Time":2,"Type":"Result","Name":"Help","Data":{"Message":"usage: cortile dbus"}}'
	;;
-listen)
	printf '{"Process":1,"Time":3,"Type":"Property","Name":"Filter","Data":{"Args":"%s"}}\n' "$*"
	echo '{"Process":1,"Time":4,"Type":"Property","Name":"Windows","Data":{"Active":{"Id":5}}}'
	echo 'not json'
	exec sleep 30
	;;
esac
`

func TestConnect_ResolverError(t *testing.T) {
	s := NewSession(slog.Default(), &staticResolver{err: stderrors.New("bus unavailable")}, config.ExitNonZeroFailure)

	env := s.Connect(context.Background())

	require.Equal(t, message.KindError, env.Kind)
	assert.Equal(t, "discover daemon binary: bus unavailable", env.Message())

	_, ok := stderrors.AsType[*errors.DiscoveryError](env.Err())
	require.True(t, ok)
	assert.False(t, s.Connected())
}

func TestConnect_ReResolves(t *testing.T) {
	s, binary := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	require.True(t, s.Connected())
	assert.Equal(t, binary, s.Binary())

	s.resolver = &staticResolver{err: &errors.DiscoveryError{Service: "svc", Path: "/p", Err: stderrors.New("gone")}}

	env := s.Connect(context.Background())
	require.Equal(t, message.KindError, env.Kind)
	assert.Equal(t, "discover svc at /p: gone", env.Message())
	assert.False(t, s.Connected())
}

func TestConnected_BinaryRemoved(t *testing.T) {
	s, binary := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	require.NoError(t, os.Remove(binary))

	assert.False(t, s.Connected())
	assert.Equal(t, "Not connected", s.Help(context.Background()).Message())
}

func TestNotConnected_NoSubprocess(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	s, _ := newConnectedSession(t, "touch "+marker+"\n", config.ExitNonZeroFailure)

	s.Disconnect()
	require.False(t, s.Connected())

	for _, env := range []*message.Envelope{
		s.Method(context.Background(), "Foo"),
		s.Property(context.Background(), "Windows"),
		s.Help(context.Background()),
	} {
		require.Equal(t, message.KindError, env.Kind)
		assert.Equal(t, "Not connected", env.Message())
		require.ErrorIs(t, env.Err(), errors.ErrNotConnected)
	}

	_, err := os.Stat(marker)
	require.ErrorIs(t, err, os.ErrNotExist, "no subprocess may be spawned while disconnected")
}

func TestMethod_Success(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	env := s.Method(context.Background(), "Foo")

	require.Equal(t, message.KindResult, env.Kind)
	assert.Equal(t, 123, env.ProcessID)
	assert.Equal(t, int64(1000), env.TimestampMs)
	assert.True(t, env.Success())
}

func TestMethod_ArgumentsConverted(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	env := s.Method(context.Background(), "WindowMove", 1, true, "left")

	args, ok := env.Payload.Get("Args")
	require.True(t, ok)

	text, _ := args.Str()
	assert.Equal(t, "dbus -method WindowMove 1 true left", text)
}

func TestProperty(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	env := s.Property(context.Background(), "Workplace")

	require.Equal(t, message.KindProperty, env.Kind)
	assert.Equal(t, "Workplace", env.SourceName)

	value, ok := env.Payload.Path("Value")
	require.True(t, ok)

	n, _ := value.Int()
	assert.Equal(t, int64(7), n)
}

func TestProperty_FailureExitStatus(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	env := s.Property(context.Background(), "X")

	require.Equal(t, message.KindError, env.Kind)
	assert.Equal(t, "boom (1)", env.Message())
}

func TestProperty_LegacyExitConvention(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitLegacyOne)

	assert.Equal(t, "boom", s.Property(context.Background(), "X").Message())
}

func TestHelp(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	env := s.Help(context.Background())

	require.Equal(t, message.KindResult, env.Kind)
	assert.Equal(t, "usage: cortile dbus", env.Message())
}

func TestListen_StreamsParsedEnvelopes(t *testing.T) {
	s, _ := newConnectedSession(t, daemonScript, config.ExitNonZeroFailure)

	envelopes := make(chan *message.Envelope, 10)

	p := s.Listen(func(env *message.Envelope) {
		envelopes <- env
	}, "Windows", "Pointer")
	require.True(t, p.Running())

	receive := func() *message.Envelope {
		select {
		case env := <-envelopes:
			return env
		case <-time.After(10 * time.Second):
			t.Fatal("no envelope received")

			return nil
		}
	}

	filter := receive()
	assert.Equal(t, "Filter", filter.SourceName)

	args, _ := filter.Payload.Get("Args")
	text, _ := args.Str()
	assert.Equal(t, "dbus -listen Windows Pointer", text)

	windows := receive()
	assert.Equal(t, message.KindProperty, windows.Kind)
	assert.Equal(t, "Windows", windows.SourceName)

	garbage := receive()
	assert.Equal(t, message.KindError, garbage.Kind)
	assert.Equal(t, "not json", garbage.Message())

	require.NoError(t, p.Terminate())

	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("listener did not stop")
	}

	assert.False(t, p.Running())
}

func TestListen_NotConnected(t *testing.T) {
	s := NewSession(slog.Default(), &staticResolver{}, config.ExitNonZeroFailure)

	var got []*message.Envelope

	p := s.Listen(func(env *message.Envelope) {
		got = append(got, env)
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Not connected", got[0].Message())
	require.NotNil(t, p)
	assert.False(t, p.Running())
	require.NoError(t, p.Terminate())
}
