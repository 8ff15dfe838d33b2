package inventory

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// headerReadBytes is how much of a file is searched for header fields.
const headerReadBytes = 8 * 1024

// Header field names.
const (
	FieldPluginName = "Plugin Name"
	FieldThemeName  = "Theme Name"
	FieldVersion    = "Version"
	FieldAuthor     = "Author"
)

var headerPatterns = map[string]*regexp.Regexp{}

func headerPattern(field string) *regexp.Regexp {
	if re, ok := headerPatterns[field]; ok {
		return re
	}
	return regexp.MustCompile(`(?mi)^(?:[ \t]*<\?php)?[ \t/*#@]*` + regexp.QuoteMeta(field) + `:(.*)$`)
}

func init() {
	for _, f := range []string{FieldPluginName, FieldThemeName, FieldVersion, FieldAuthor} {
		headerPatterns[f] = headerPattern(f)
	}
}

// ReadHeaders extracts header comment fields from the first 8 KB of a file.
// Missing fields are absent from the result.
func ReadHeaders(path string, fields ...string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, headerReadBytes))
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return ParseHeaders(string(data), fields...), nil
}

// ParseHeaders extracts header fields from text. Values are trimmed and a
// trailing comment close ("*/") or PHP close tag ("?>") is removed.
func ParseHeaders(text string, fields ...string) map[string]string {
	text = strings.ReplaceAll(text, "\r", "\n")
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		m := headerPattern(field).FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := cleanupHeaderValue(m[1])
		if v != "" {
			out[field] = v
		}
	}
	return out
}

func cleanupHeaderValue(v string) string {
	v = strings.TrimSpace(v)
	for _, closer := range []string{"*/", "?>"} {
		if i := strings.Index(v, closer); i >= 0 {
			v = v[:i]
		}
	}
	return strings.TrimSpace(v)
}
