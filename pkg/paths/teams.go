package paths

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/teamboard/errors"
)

const (
	configFileName = "config.json"
	inboxesDirName = "inboxes"
)

var teamIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidTeamID reports whether id is safe to join onto the teams root.
func ValidTeamID(id string) bool {
	return teamIDPattern.MatchString(id)
}

// ValidateTeamID returns a validation error for ids that could escape the root.
func ValidateTeamID(id string) error {
	if !ValidTeamID(id) {
		return errors.InvalidTeamID(id)
	}
	return nil
}

// Resolver maps team identifiers to their locations under a single root.
// It performs no I/O. Callers validate externally supplied ids first.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver for root. An empty root falls back to
// DefaultTeamsRoot.
func NewResolver(root string) *Resolver {
	if root == "" {
		root = DefaultTeamsRoot()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the absolute teams root.
func (r *Resolver) Root() string {
	return r.root
}

// TeamPath returns root/id.
func (r *Resolver) TeamPath(id string) string {
	return filepath.Join(r.root, id)
}

// ConfigPath returns root/id/config.json.
func (r *Resolver) ConfigPath(id string) string {
	return filepath.Join(r.TeamPath(id), configFileName)
}

// InboxesPath returns root/id/inboxes.
func (r *Resolver) InboxesPath(id string) string {
	return filepath.Join(r.TeamPath(id), inboxesDirName)
}

// MemberInboxPath returns root/id/inboxes/member.json.
func (r *Resolver) MemberInboxPath(id, member string) string {
	return filepath.Join(r.InboxesPath(id), member+".json")
}

// ExtractTeamID returns the first path segment of p relative to the root.
// It returns false when p is the root itself or lies outside it. Both slash
// styles are accepted in p.
func (r *Resolver) ExtractTeamID(p string) (string, bool) {
	rel, ok := r.relative(p)
	if !ok || rel == "." {
		return "", false
	}
	id := strings.SplitN(rel, "/", 2)[0]
	if id == "" || id == "." || id == ".." {
		return "", false
	}
	return id, true
}

// Relative returns p relative to the root using forward slashes.
func (r *Resolver) Relative(p string) (string, bool) {
	return r.relative(p)
}

func (r *Resolver) relative(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	normalized := filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if !filepath.IsAbs(normalized) {
		normalized = filepath.Join(r.root, normalized)
	}
	rel, err := filepath.Rel(r.root, filepath.Clean(normalized))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// IsConfigFile reports whether p names a team config file.
func IsConfigFile(p string) bool {
	return filepath.Base(filepath.FromSlash(p)) == configFileName
}
