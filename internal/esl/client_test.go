package esl

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-router/internal/common/errors"
)

// fakeSwitch is a minimal in-process event-socket server. Commands
// are answered from the responses map; unknown commands get -ERR.
type fakeSwitch struct {
	listener net.Listener
	password string

	mu        sync.Mutex
	responses map[string]string
	commands  []string
}

func newFakeSwitch(t *testing.T, password string) *fakeSwitch {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fs := &fakeSwitch{
		listener: listener,
		password: password,
		responses: map[string]string{
			"reloadxml":    "+OK [Success]",
			"reloadacl":    "+OK acl reloaded",
			"sofia status": "Name  Type  Data  State\ninternal profile sip:mod_sofia RUNNING (0)",
		},
	}
	go fs.serve()
	t.Cleanup(func() { listener.Close() })
	return fs
}

func (fs *fakeSwitch) addr() (string, int) {
	addr := fs.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func (fs *fakeSwitch) setResponse(command, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.responses[command] = body
}

func (fs *fakeSwitch) seenCommands() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.commands...)
}

func (fs *fakeSwitch) serve() {
	for {
		conn, err := fs.listener.Accept()
		if err != nil {
			return
		}
		go fs.handle(conn)
	}
}

func (fs *fakeSwitch) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	fmt.Fprint(conn, "Content-Type: auth/request\n\n")
	line, err := readRequest(reader)
	if err != nil {
		return
	}
	if line != "auth "+fs.password {
		fmt.Fprint(conn, "Content-Type: command/reply\nReply-Text: -ERR invalid\n\n")
		return
	}
	fmt.Fprint(conn, "Content-Type: command/reply\nReply-Text: +OK accepted\n\n")

	for {
		line, err := readRequest(reader)
		if err != nil {
			return
		}
		command := strings.TrimPrefix(line, "api ")

		fs.mu.Lock()
		fs.commands = append(fs.commands, command)
		body, ok := fs.responses[command]
		fs.mu.Unlock()
		if !ok {
			body = "-ERR " + command + " Command not found!"
		}
		fmt.Fprintf(conn, "Content-Type: api/response\nContent-Length: %d\n\n%s", len(body), body)
	}
}

func readRequest(reader *bufio.Reader) (string, error) {
	var request string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if request != "" {
				return request, nil
			}
			continue
		}
		request = line
	}
}

func newTestClient(t *testing.T, fs *fakeSwitch, password string) *Client {
	t.Helper()
	host, port := fs.addr()
	client := NewClient(ClientConfig{
		Host:     host,
		Port:     port,
		Password: password,
		Timeout:  2 * time.Second,
	}, nil)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_ConnectAndCommand(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))

	body, err := client.Command(ctx, "sofia status")
	require.NoError(t, err)
	assert.Contains(t, body, "RUNNING")
}

func TestClient_LazyConnect(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")

	// No explicit Connect; the first command dials.
	require.NoError(t, client.ReloadXML(context.Background()))
	assert.Equal(t, []string{"reloadxml"}, fs.seenCommands())
}

func TestClient_AuthRejected(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "wrong-password")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := client.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeControlChannel))
}

func TestClient_SwitchError(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")

	_, err := client.Command(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeControlChannel))
	assert.Contains(t, err.Error(), "-ERR")
}

func TestClient_ReloadCommands(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	fs.setResponse("sofia profile internal rescan", "+OK scan complete")
	client := newTestClient(t, fs, "ClueCon")
	ctx := context.Background()

	require.NoError(t, client.ReloadXML(ctx))
	require.NoError(t, client.ReloadACL(ctx))
	require.NoError(t, client.RescanProfile(ctx, "internal"))
	require.NoError(t, client.Verify(ctx))

	assert.Equal(t, []string{
		"reloadxml",
		"reloadacl",
		"sofia profile internal rescan",
		"sofia status",
	}, fs.seenCommands())
}

func TestClient_RescanRequiresProfile(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")

	err := client.RescanProfile(context.Background(), "")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestClient_UnreachableSwitch(t *testing.T) {
	client := NewClient(ClientConfig{
		Host:     "127.0.0.1",
		Port:     1, // nothing listens here
		Password: "ClueCon",
		Timeout:  time.Second,
	}, nil)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := client.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeControlChannel))
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")
	ctx := context.Background()

	require.NoError(t, client.ReloadXML(ctx))
	require.NoError(t, client.Close())

	// Connection is gone; the next command transparently redials.
	require.NoError(t, client.ReloadACL(ctx))
	assert.Equal(t, []string{"reloadxml", "reloadacl"}, fs.seenCommands())
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},
		{9, 60 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestReadFrame_MalformedContentLength(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"negative", "Content-Type: api/response\nContent-Length: -1\n\n"},
		{"not a number", "Content-Type: api/response\nContent-Length: many\n\n"},
		{"huge", "Content-Type: api/response\nContent-Length: 999999999999\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readFrame(bufio.NewReader(strings.NewReader(tt.frame)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Content-Length")
		})
	}
}

func TestStatusMonitor(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")

	monitor := NewStatusMonitor(client, "@every 1h", time.Second, nil)
	assert.False(t, monitor.Healthy())

	require.NoError(t, monitor.Start())
	defer monitor.Stop()

	// Start kicks off an immediate check.
	require.Eventually(t, monitor.Healthy, 2*time.Second, 10*time.Millisecond)
	assert.False(t, monitor.LastChecked().IsZero())
}

func TestStatusMonitor_InvalidSchedule(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	client := newTestClient(t, fs, "ClueCon")

	monitor := NewStatusMonitor(client, "not-a-schedule", time.Second, nil)
	err := monitor.Start()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestStatusMonitor_UnhealthySwitch(t *testing.T) {
	fs := newFakeSwitch(t, "ClueCon")
	fs.setResponse("sofia status", "-ERR sofia Command not found!")
	client := newTestClient(t, fs, "ClueCon")

	monitor := NewStatusMonitor(client, "@every 1h", time.Second, nil)
	require.NoError(t, monitor.Start())
	defer monitor.Stop()

	require.Eventually(t, func() bool {
		return !monitor.LastChecked().IsZero()
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, monitor.Healthy())
}
