package tty_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/segbot/pkg/tty"
	"github.com/robotalks/segbot/pkg/tty/ttytest"
)

func devicePath(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "rpmsg0")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func openFake(t *testing.T, port *ttytest.Port) *tty.Channel {
	ch, err := tty.OpenWith(func(string, tty.Options) (tty.Port, error) {
		return port, nil
	}, devicePath(t), tty.Options{})
	require.NoError(t, err)
	return ch
}

func TestOpenErrors(t *testing.T) {
	testCases := []struct {
		name   string
		path   func(t *testing.T) string
		opener tty.Opener
		expect error
	}{
		{
			name:   "missing device",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			expect: tty.ErrDeviceMissing,
		},
		{
			name: "open syscall fails",
			path: devicePath,
			opener: func(string, tty.Options) (tty.Port, error) {
				return nil, os.ErrPermission
			},
			expect: tty.ErrOpenFailed,
		},
		{
			name: "backend reports open failure",
			path: devicePath,
			opener: func(path string, _ tty.Options) (tty.Port, error) {
				return nil, tty.ErrOpenFailed
			},
			expect: tty.ErrOpenFailed,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opener := tc.opener
			if opener == nil {
				opener = func(string, tty.Options) (tty.Port, error) {
					t.Fatal("opener must not be called")
					return nil, nil
				}
			}
			ch, err := tty.OpenWith(opener, tc.path(t), tty.Options{})
			require.Nil(t, ch)
			require.True(t, errors.Is(err, tc.expect), "got %v", err)
		})
	}
}

func TestOpenSetsReadTimeout(t *testing.T) {
	port := ttytest.New()
	ch, err := tty.OpenWith(func(string, tty.Options) (tty.Port, error) {
		return port, nil
	}, devicePath(t), tty.Options{ReadTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer ch.Close()
	require.Equal(t, 200*time.Millisecond, port.ReadTimeout())
}

func TestWriteLine(t *testing.T) {
	port := ttytest.New()
	ch := openFake(t, port)
	require.NoError(t, ch.WriteLine([]byte("?angle")))
	require.NoError(t, ch.WriteLine([]byte("!stop")))
	require.Equal(t, []string{"?angle", "!stop"}, port.Lines())

	port.ShortWrite = true
	err := ch.WriteLine([]byte("!stop"))
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)

	port.ShortWrite, port.WriteErr = false, errors.New("EIO")
	err = ch.WriteLine([]byte("!stop"))
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
}

func TestReadLine(t *testing.T) {
	long := "?" + strings.Repeat("x", 80) + "\n"
	testCases := []struct {
		name   string
		reply  string
		max    int
		expect []string
	}{
		{
			name:   "single line",
			reply:  "?angle:3\n",
			expect: []string{"?angle:3\n"},
		},
		{
			name:   "stops at newline",
			reply:  "ok\n?voltage:1180\n",
			expect: []string{"ok\n", "?voltage:1180\n"},
		},
		{
			name:   "bounded by default max",
			reply:  long,
			expect: []string{long[:tty.DefaultMaxLineLen], long[tty.DefaultMaxLineLen:]},
		},
		{
			name:   "bounded by max",
			reply:  "abcdef\n",
			max:    4,
			expect: []string{"abcd", "ef\n"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port := ttytest.New(tc.reply)
			ch := openFake(t, port)
			require.NoError(t, ch.WriteLine([]byte("?")))
			for _, expect := range tc.expect {
				line, err := ch.ReadLine(tc.max)
				require.NoError(t, err)
				require.Equal(t, expect, string(line))
			}
			require.Zero(t, port.Unread())
		})
	}
}

func TestReadLineFailures(t *testing.T) {
	port := ttytest.New()
	ch := openFake(t, port)
	_, err := ch.ReadLine(0)
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)

	port.ReadErr = errors.New("EIO")
	_, err = ch.ReadLine(0)
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
}

type timeoutPort struct {
	*ttytest.Port
}

func (p timeoutPort) Read([]byte) (int, error) {
	return 0, nil
}

func TestReadLineTimeout(t *testing.T) {
	ch := tty.NewChannel("/dev/rpmsg0", timeoutPort{ttytest.New()})
	_, err := ch.ReadLine(0)
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
}

func TestResetInput(t *testing.T) {
	port := ttytest.New("?angle:3\n")
	ch := openFake(t, port)
	require.NoError(t, ch.WriteLine([]byte("?angle")))
	require.NotZero(t, port.Unread())
	require.NoError(t, ch.ResetInput())
	require.Zero(t, port.Unread())
	require.Equal(t, 1, port.Flushes())

	require.NoError(t, ch.Close())
	err := ch.ResetInput()
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
}

func TestCloseIsIdempotent(t *testing.T) {
	port := ttytest.New("x\n")
	ch := openFake(t, port)
	require.True(t, ch.IsOpen())
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	require.False(t, ch.IsOpen())
	require.True(t, port.IsClosed())

	err := ch.WriteLine([]byte("!stop"))
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
	_, err = ch.ReadLine(0)
	require.True(t, errors.Is(err, tty.ErrIOFailed), "got %v", err)
	require.Empty(t, port.Lines())
}
