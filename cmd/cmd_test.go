package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/teamboard/config"
	"github.com/grovetools/teamboard/logging"
	"github.com/grovetools/teamboard/pkg/team"
	"github.com/grovetools/teamboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTeamsCommandJSON(t *testing.T) {
	root := testutil.Isolate(t)
	testutil.WriteTeam(t, root, "teamX", "X", "a", "b")
	testutil.WriteInbox(t, root, "teamX", "a", testutil.Message{Text: "hi", Timestamp: "2024-01-01T00:00:00Z"})

	out, err := execute(t, "teams", "--local", "--json")
	require.NoError(t, err)

	var teams []team.Team
	require.NoError(t, json.Unmarshal([]byte(out), &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, 2, teams[0].MemberCount)
	require.NotNil(t, teams[0].LastActivity)
	assert.Equal(t, "2024-01-01T00:00:00Z", *teams[0].LastActivity)
}

func TestTeamsCommandTable(t *testing.T) {
	root := testutil.Isolate(t)
	testutil.WriteTeam(t, root, "alpha", "Alpha", "a")
	testutil.WriteTeam(t, root, "beta", "Beta")

	out, err := execute(t, "teams", "--local")
	require.NoError(t, err)
	for _, want := range []string{"ID", "MEMBERS", "alpha", "Alpha", "beta", "Beta"} {
		assert.Contains(t, out, want)
	}
}

func TestTeamsCommandSingle(t *testing.T) {
	root := testutil.Isolate(t)
	testutil.WriteTeam(t, root, "alpha", "Alpha")

	out, err := execute(t, "teams", "alpha", "--local", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Alpha"`)

	_, err = execute(t, "teams", "ghost", "--local")
	assert.Error(t, err)
	_, err = execute(t, "teams", "bad.id", "--local")
	assert.Error(t, err)
}

func TestTeamsCommandReadsTeamsPath(t *testing.T) {
	testutil.Isolate(t)
	other := t.TempDir()
	testutil.WriteTeam(t, other, "gamma", "Gamma")

	out, err := execute(t, "teams", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "No teams found")

	t.Setenv("TEAMS_PATH", other)
	out, err = execute(t, "teams", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "gamma")
}

func TestStatusWhenStopped(t *testing.T) {
	testutil.Isolate(t)
	out, err := execute(t, "status")
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Contains(t, out, "Stopped")

	out, err = execute(t, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
}

func TestMessagesCommand(t *testing.T) {
	root := testutil.Isolate(t)
	testutil.WriteTeam(t, root, "alpha", "Alpha", "a", "b")
	testutil.WriteInbox(t, root, "alpha", "a",
		testutil.Message{From: "lead", Text: "first", Timestamp: "2024-01-01T00:00:00Z"},
		testutil.Message{From: "lead", Text: "third", Timestamp: "2024-01-03T00:00:00Z"})
	testutil.WriteInbox(t, root, "alpha", "b",
		testutil.Message{From: "a", Text: "second", Timestamp: "2024-01-02T00:00:00Z"})

	out, err := execute(t, "messages", "alpha", "--local", "--json", "--limit", "2")
	require.NoError(t, err)
	var got []testutil.Message
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Text)
	assert.Equal(t, "second", got[1].Text)

	out, err = execute(t, "messages", "alpha", "--local", "--before", "2024-01-02T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.NotContains(t, out, "second")

	tests := []struct {
		name string
		args []string
	}{
		{"negative limit", []string{"messages", "alpha", "--local", "--limit", "-1"}},
		{"bad before", []string{"messages", "alpha", "--local", "--before", "yesterday"}},
		{"bad id", []string{"messages", "../etc", "--local"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestPrintMessagesEmpty(t *testing.T) {
	var buf bytes.Buffer
	printMessages(&buf, nil)
	assert.Equal(t, "No messages\n", buf.String())
}

func TestPrintTeamsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTeams(&buf, nil)
	assert.Equal(t, "No teams found\n", buf.String())
}

func TestRunServerEndToEnd(t *testing.T) {
	root := testutil.Isolate(t)
	testutil.WriteTeam(t, root, "teamA", "A", "bob")

	cfg := config.Default()
	cfg.TeamsPath = root
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Watch.StabilityThreshold = 50 * time.Millisecond
	cfg.Watch.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runServer(ctx, cfg, logging.NewLogger("serve-test"), func(a net.Addr) { addrCh <- a })
	}()

	var base string
	select {
	case a := <-addrCh:
		base = "http://" + a.String()
	case err := <-errCh:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get(base + "/api/teams/teamA")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"memberCount":1`)

	_, port, err := net.SplitHostPort(strings.TrimPrefix(base, "http://"))
	require.NoError(t, err)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", port)
	t.Setenv("TEAMS_PATH", t.TempDir())
	out, err := execute(t, "teams", "--json")
	require.NoError(t, err, "teams should be served by the running server")
	assert.Contains(t, out, `"id": "teamA"`)

	stream, err := http.Get(base + "/api/events")
	require.NoError(t, err)
	defer stream.Body.Close()
	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	testutil.WriteInbox(t, root, "teamA", "bob", testutil.Message{Text: "hello", Timestamp: "2024-05-01T00:00:00Z"})

	deadline := time.After(5 * time.Second)
	found := make(chan string, 1)
	go func() {
		for {
			l, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(l, "event: message:new") {
				data, _ := reader.ReadString('\n')
				found <- data
				return
			}
		}
	}()
	select {
	case data := <-found:
		assert.Contains(t, data, `"teamId":"teamA"`)
		assert.Contains(t, data, `"hello"`)
	case <-deadline:
		t.Fatal("no message:new event")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerFailsWhenRootIsFile(t *testing.T) {
	home := testutil.Isolate(t)
	file := filepath.Join(home, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	cfg := config.Default()
	cfg.TeamsPath = file
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	err := runServer(context.Background(), cfg, logging.NewLogger("serve-test"), nil)
	assert.Error(t, err)
}
