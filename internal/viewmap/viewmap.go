// Package viewmap derives client view mappings from depot paths. It is
// pure: no backend access, same inputs always produce the same view.
package viewmap

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ErrMissingPath is returned when a view is requested for an empty path.
var ErrMissingPath = fmt.Errorf("missing path")

// ErrMissingClient is returned when the client name template is empty.
var ErrMissingClient = fmt.Errorf("missing client name")

// ClientView maps a depot path, recursively, into a client workspace:
//
//	ClientView("//depot/main", "jenkins-main")
//	  -> "//depot/main/... //jenkins-main/..."
//
// The depot path is taken as-is apart from trailing-slash cleanup; the
// right-hand side is always the whole client root. Invalid arguments
// fail loudly, never silently defaulted.
func ClientView(depotPath, client string) (string, error) {
	if strings.TrimSpace(depotPath) == "" {
		return "", ErrMissingPath
	}
	if strings.TrimSpace(client) == "" {
		return "", ErrMissingClient
	}

	depot := strings.TrimSuffix(depotPath, "/") + "/..."
	return fmt.Sprintf("%s //%s/...", depot, client), nil
}

// ClientViews maps several depot paths into one client, one view line
// per path, preserving input order. Later lines win on overlap, which
// matches backend view semantics.
func ClientViews(depotPaths []string, client string) ([]string, error) {
	lines := make([]string, 0, len(depotPaths))
	for _, p := range depotPaths {
		line, err := ClientView(p, client)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ResolveCharset normalizes a character-encoding name against the IANA
// registry. An empty name defaults to "UTF-8". The charset never
// affects view content, only the encoding metadata recorded on the
// workspace, so resolution failures are the only error case.
func ResolveCharset(name string) (string, error) {
	if name == "" {
		return "UTF-8", nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == nil {
		// Registered name with no Go encoding (e.g. some legacy
		// aliases). The name is still valid metadata.
		return name, nil
	}

	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return name, nil
	}
	return canonical, nil
}
