// Package media acquires post attachments and extracts text from them.
package media

import (
	"fmt"
	"os/exec"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// Tool names an external program and an optional configured path.
type Tool struct {
	Name string
	Path string
}

// ResolveTools returns an absolute path for every tool, preferring the configured
// path and falling back to PATH lookup. Any unresolved tool is an ErrToolMissing.
func ResolveTools(tools ...Tool) (map[string]string, error) {
	resolved := make(map[string]string, len(tools))
	for _, t := range tools {
		candidate := t.Path
		if candidate == "" {
			candidate = t.Name
		}
		p, err := exec.LookPath(candidate)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", domain.ErrToolMissing, t.Name, err)
		}
		resolved[t.Name] = p
	}
	return resolved, nil
}
