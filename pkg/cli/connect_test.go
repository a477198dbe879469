package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConnect_EchoesInput(t *testing.T) {
	url := startTestServer(t)

	var out, errOut syncBuffer
	opts := connectOptions{clientOptions: clientOptions{url: url, timeout: 5 * time.Second}}
	in := strings.NewReader("hello\n\nping\n")

	require.NoError(t, runConnect(context.Background(), opts, in, &out, &errOut))

	got := out.String()
	assert.Contains(t, got, "Connected to "+url)
	assert.Contains(t, got, "> hello\n")
	assert.Contains(t, got, "< hello\n")
	assert.Contains(t, got, "> ping\n")
	assert.Contains(t, got, "< pong\n", "a pong answering a typed ping is shown")
	assert.Less(t, strings.Index(got, "< hello"), strings.Index(got, "< pong"))
	assert.Empty(t, errOut.String())
}

func TestRunConnect_HidesKeepAlivePongs(t *testing.T) {
	url := startTestServer(t)

	pr, pw := io.Pipe()
	var out syncBuffer
	opts := connectOptions{
		clientOptions: clientOptions{url: url, timeout: 5 * time.Second},
		pingInterval:  10 * time.Millisecond,
	}

	done := make(chan error, 1)
	go func() {
		done <- runConnect(context.Background(), opts, pr, &out, io.Discard)
	}()

	_, err := pw.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "< hello")
	}, 5*time.Second, 10*time.Millisecond)

	// Let several keep-alive pings go by.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, pw.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("connect did not finish after end of input")
	}
	assert.NotContains(t, out.String(), "pong")
}

func TestRunConnect_JSON(t *testing.T) {
	url := startTestServer(t)

	var out syncBuffer
	opts := connectOptions{clientOptions: clientOptions{url: url, timeout: 5 * time.Second}, json: true}
	require.NoError(t, runConnect(context.Background(), opts, strings.NewReader("hi\n"), &out, io.Discard))

	got := out.String()
	assert.Contains(t, got, `"direction":"sent","type":"text","data":"hi"`)
	assert.Contains(t, got, `"direction":"received","type":"text","data":"hi"`)
	assert.NotContains(t, got, "Connected to")
}

func TestRunConnect_ContextCancel(t *testing.T) {
	url := startTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		opts := connectOptions{clientOptions: clientOptions{url: url, timeout: 5 * time.Second}}
		done <- runConnect(ctx, opts, pr, &out, io.Discard)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Connected to")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not stop on cancel")
	}
	assert.Contains(t, out.String(), "Disconnecting...")
}

func TestRunConnect_CancelWhileServerFloods(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("flood")); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		opts := connectOptions{clientOptions: clientOptions{url: url, timeout: 5 * time.Second}}
		done <- runConnect(ctx, opts, pr, &out, io.Discard)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "< flood")
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not stop on cancel")
	}
	assert.Less(t, time.Since(start), 800*time.Millisecond, "reader must be released before the close wait")
}
