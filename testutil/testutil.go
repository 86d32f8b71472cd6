// Package testutil builds on-disk team fixtures for tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Isolate points every teamboard directory at fresh temp dirs for the test:
// TEAMBOARD_HOME for config and state, TEAMS_PATH for the teams root, which
// is returned.
func Isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	root := filepath.Join(home, "teams")
	require.NoError(t, os.MkdirAll(root, 0755))

	t.Setenv("TEAMBOARD_HOME", home)
	t.Setenv("TEAMS_PATH", root)
	for _, key := range []string{"HOST", "PORT", "LOG_LEVEL", "TEAMBOARD_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return root
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// WriteTeam writes root/id/config.json with the given name and members.
func WriteTeam(t *testing.T, root, id, name string, members ...string) {
	t.Helper()
	if members == nil {
		members = []string{}
	}
	data, err := json.Marshal(map[string]interface{}{"name": name, "members": members})
	require.NoError(t, err)
	WriteFile(t, filepath.Join(root, id, "config.json"), string(data))
}

// Message is a minimal inbox entry.
type Message struct {
	From      string `json:"from,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// WriteInbox writes root/id/inboxes/member.json holding messages.
func WriteInbox(t *testing.T, root, id, member string, messages ...Message) {
	t.Helper()
	if messages == nil {
		messages = []Message{}
	}
	data, err := json.Marshal(messages)
	require.NoError(t, err)
	WriteFile(t, filepath.Join(root, id, "inboxes", member+".json"), string(data))
}
