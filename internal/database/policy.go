package database

import (
	"strings"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Table notes.
const (
	NoteCompatible           = "Compatible"
	NoteUnsupportedCollation = "Unsupported Collation"
	NoteIncompatibleEngine   = "Incompatible Engine"
	NoteUnsupportedPrefix    = "Unsupported Prefix"
)

// supportedCollations are the utf8mb4 collations the platform accepts.
var supportedCollations = []string{
	"utf8mb4_general_ci",
	"utf8mb4_bin",
	"utf8mb4_unicode_ci",
	"utf8mb4_icelandic_ci",
	"utf8mb4_latvian_ci",
	"utf8mb4_romanian_ci",
	"utf8mb4_slovenian_ci",
	"utf8mb4_polish_ci",
	"utf8mb4_estonian_ci",
	"utf8mb4_spanish_ci",
	"utf8mb4_swedish_ci",
	"utf8mb4_turkish_ci",
	"utf8mb4_czech_ci",
	"utf8mb4_danish_ci",
	"utf8mb4_lithuanian_ci",
	"utf8mb4_slovak_ci",
	"utf8mb4_spanish2_ci",
	"utf8mb4_roman_ci",
	"utf8mb4_persian_ci",
	"utf8mb4_esperanto_ci",
	"utf8mb4_hungarian_ci",
	"utf8mb4_sinhala_ci",
	"utf8mb4_german2_ci",
	"utf8mb4_croatian_mysql561_ci",
	"utf8mb4_unicode_520_ci",
	"utf8mb4_vietnamese_ci",
	"utf8mb4_croatian_ci",
	"utf8mb4_myanmar_ci",
	"utf8mb4_thai_520_w2",
	"utf8mb4_general_nopad_ci",
	"utf8mb4_nopad_bin",
	"utf8mb4_unicode_nopad_ci",
	"utf8mb4_unicode_520_nopad_ci",
}

// Attributor maps a table name to the plugins that create it.
type Attributor interface {
	TableSources(name string) []string
}

// Policy is the platform's database policy.
type Policy struct {
	Collations map[string]bool
	Engine     string
	Prefix     string
}

// DefaultPolicy returns the platform policy.
func DefaultPolicy() Policy {
	c := make(map[string]bool, len(supportedCollations))
	for _, name := range supportedCollations {
		c[name] = true
	}
	return Policy{Collations: c, Engine: "InnoDB", Prefix: "wp_"}
}

// Evaluate checks each table and attributes it to its sources. A table is
// compatible only when every check passes. A nil attributor skips
// attribution.
func (p Policy) Evaluate(tables []Table, attr Attributor) []types.TableResult {
	out := make([]types.TableResult, 0, len(tables))
	for _, t := range tables {
		var notes []string
		if !p.Collations[t.Collation] {
			notes = append(notes, NoteUnsupportedCollation)
		}
		if t.Engine != p.Engine {
			notes = append(notes, NoteIncompatibleEngine)
		}
		if !strings.HasPrefix(t.Name, p.Prefix) {
			notes = append(notes, NoteUnsupportedPrefix)
		}
		compatible := len(notes) == 0
		if compatible {
			notes = []string{NoteCompatible}
		}

		var sources []string
		if attr != nil {
			sources = attr.TableSources(t.Name)
		}

		out = append(out, types.TableResult{
			Name:       t.Name,
			Engine:     t.Engine,
			Collation:  t.Collation,
			Sources:    sources,
			Notes:      notes,
			Compatible: compatible,
		})
	}
	return out
}
