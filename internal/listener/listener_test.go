package listener

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"io"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iammegalith/telnet"
	"github.com/pixil98/go-testutil"
	"golang.org/x/crypto/ssh"
)

// echoRunner answers every line with the same line upper-cased.
type echoRunner struct{}

func (echoRunner) RunSession(ctx context.Context, rwc io.ReadWriteCloser) error {
	scanner := bufio.NewScanner(rwc)
	for scanner.Scan() {
		if _, err := io.WriteString(rwc, strings.ToUpper(scanner.Text())+"\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}

type readyListener interface {
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	Addr() net.Addr
}

// startListener runs l until the test ends and returns its loopback address.
// The returned stop func cancels it and checks it shut down cleanly.
func startListener(t *testing.T, l readyListener) (string, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Start(ctx)
	}()

	select {
	case <-l.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("listener exited: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("listener not ready")
	}

	stop := func() {
		t.Helper()
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not stop")
		}
	}

	port := l.Addr().(*net.TCPAddr).Port
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), stop
}

func TestTcpListener(t *testing.T) {
	addr, stop := startListener(t, NewTcpListener(0, NewConnectionManager(echoRunner{})))

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err = conn.Write([]byte("{\"type\":\"shoot\"}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "echo", line, "{\"TYPE\":\"SHOOT\"}\n")

	conn.Close()
	stop()
}

func TestTelnetListener(t *testing.T) {
	addr, stop := startListener(t, NewTelnetListener(0, NewConnectionManager(echoRunner{})))

	conn, err := telnet.Dial(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err = conn.Write([]byte("{\"type\":\"chat\"}\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "echo", line, "{\"TYPE\":\"CHAT\"}\r\n")

	conn.Close()
	stop()
}

func TestSshListener(t *testing.T) {
	_, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	addr, stop := startListener(t, NewSshListener(0, NewConnectionManager(echoRunner{}), signer))

	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            "player",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	err = sess.RequestPty("xterm", 24, 80, ssh.TerminalModes{})
	testutil.AssertErrorContains(t, err, "pty-req")

	stdin, err := sess.StdinPipe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sess.Shell(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(stdout).ReadString('\n')
		lines <- line
	}()

	_, err = stdin.Write([]byte("{\"type\":\"shoot\"}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case line := <-lines:
		testutil.AssertEqual(t, "echo", line, "{\"TYPE\":\"SHOOT\"}\r\n")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	sess.Close()
	client.Close()
	stop()
}

func TestWaitForStart(t *testing.T) {
	tests := map[string]struct {
		requests []string
		close    bool
		cancel   bool
		exp      bool
	}{
		"shell":             {requests: []string{"pty-req", "shell"}, exp: true},
		"exec":              {requests: []string{"env", "exec"}, exp: true},
		"closed unstarted":  {requests: []string{"pty-req"}, close: true, exp: false},
		"cancelled waiting": {requests: []string{"env"}, cancel: true, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := make(chan *ssh.Request, len(tt.requests))
			for _, r := range tt.requests {
				in <- &ssh.Request{Type: r}
			}
			if tt.close {
				close(in)
			} else {
				defer close(in)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			testutil.AssertEqual(t, "started", waitForStart(ctx, in), tt.exp)
		})
	}
}

func TestAcceptBackoff(t *testing.T) {
	var b acceptBackoff

	var got []time.Duration
	for range 10 {
		got = append(got, b.next())
	}
	testutil.AssertEqual(t, "delays", got, []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		160 * time.Millisecond,
		320 * time.Millisecond,
		640 * time.Millisecond,
		time.Second,
		time.Second,
	})

	b.reset()
	testutil.AssertEqual(t, "after reset", b.next(), minAcceptDelay)
}

func TestWebsocketListener(t *testing.T) {
	l := NewWebsocketListener(0, "", NewConnectionManager(echoRunner{}))
	server := httptest.NewServer(l.Handler())
	defer server.Close()
	defer l.cancelConns()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + DefaultWebsocketPath
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	for _, frame := range []string{"{\"type\":\"chat\"}", "second"} {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, got, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		testutil.AssertEqual(t, "frame", string(got), strings.ToUpper(frame))
	}
}
