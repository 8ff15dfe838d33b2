package audit

import (
	"fmt"
	"os"
	"sort"

	"github.com/ancients-collective/vipscan/internal/types"
)

// DirectoryPolicy describes one known wp-content entry.
type DirectoryPolicy struct {
	Description string
	Supported   bool
}

// descriptionUnknown is reported for entries not in the policy list.
const descriptionUnknown = "Not Supported"

// DefaultDirectories lists the wp-content entries the platform knows about.
func DefaultDirectories() map[string]DirectoryPolicy {
	return map[string]DirectoryPolicy{
		"client-mu-plugins": {"Client-specific must-use plugins.", true},
		"docs":              {"Documentation related to the site.", true},
		"images":            {"Images and media files.", true},
		"languages":         {"Language files for translations.", true},
		"plugins":           {"Installed plugins directory.", true},
		"private":           {"Private files, restricted access.", true},
		"themes":            {"Installed themes directory.", true},
		"uploads":           {"WordPress uploads directory.", false},
		"vip-config":        {"VIP platform configuration files.", true},
		".editorconfig":     {"Code style configuration file.", true},
		".gitignore":        {"Git ignore file, lists files to ignore in version control.", true},
		".phpcs.xml.dist":   {"PHP CodeSniffer configuration file.", true},
		"README.md":         {"Readme file, documentation overview.", true},
		"composer.json":     {"Composer file for PHP dependencies.", true},
		"composer.lock":     {"Composer lock file for dependency versions.", true},
		"index.php":         {"Directory index file to prevent directory listing.", false},
	}
}

// CheckDirectories compares the entries of contentDir against policies.
// Unknown entries are unsupported. Results are sorted by name.
func CheckDirectories(contentDir string, policies map[string]DirectoryPolicy) ([]types.DirectoryResult, error) {
	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, contentDir, err)
	}

	results := make([]types.DirectoryResult, 0, len(entries))
	for _, e := range entries {
		policy, ok := policies[e.Name()]
		if !ok {
			policy = DirectoryPolicy{Description: descriptionUnknown}
		}
		results = append(results, types.DirectoryResult{
			Name:        e.Name(),
			Description: policy.Description,
			Supported:   policy.Supported,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}
