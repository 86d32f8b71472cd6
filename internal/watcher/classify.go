package watcher

import (
	"path/filepath"
	"strings"

	"github.com/grovetools/teamboard/pkg/paths"
)

type changeKind int

const (
	kindConfig changeKind = iota + 1
	kindInbox
)

func (k changeKind) String() string {
	switch k {
	case kindConfig:
		return "config"
	case kindInbox:
		return "inbox"
	default:
		return "unknown"
	}
}

type change struct {
	kind   changeKind
	teamID string
}

// classify maps a file path to the team it belongs to and whether it is the
// team's config or one of its inbox files. Files directly in the root and
// non-JSON files are not classified.
func (w *Watcher) classify(path string) (change, bool) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return change{}, false
	}
	rel, ok := w.resolver.Relative(path)
	if !ok || !strings.Contains(rel, "/") {
		return change{}, false
	}
	id, ok := w.resolver.ExtractTeamID(path)
	if !ok || !paths.ValidTeamID(id) {
		return change{}, false
	}
	if paths.IsConfigFile(path) {
		return change{kind: kindConfig, teamID: id}, true
	}
	return change{kind: kindInbox, teamID: id}, true
}
