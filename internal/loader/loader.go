// Package loader reads and validates the known-exception override table.
package loader

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ancients-collective/vipscan/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// slugPattern matches plugin/theme slugs and mu-plugin file names.
var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Loader reads YAML override tables and validates them.
type Loader struct {
	validate *validator.Validate
}

// New creates a new Loader.
func New() *Loader {
	v := validator.New()

	_ = v.RegisterValidation("vipscan_slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return slugPattern.MatchString(s) && s != "." && s != ".."
	})

	return &Loader{validate: v}
}

// Defaults returns the table embedded in the binary.
func (l *Loader) Defaults() (*Table, error) {
	t, err := l.Parse(defaultsYAML, "defaults.yaml")
	if err != nil {
		return nil, fmt.Errorf("embedded defaults: %w", err)
	}
	return t, nil
}

// LoadFile reads a YAML file and returns a validated Table.
func (l *Loader) LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return l.Parse(data, path)
}

// LoadFS reads a YAML file from fsys.
func (l *Loader) LoadFS(fsys fs.FS, name string) (*Table, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return l.Parse(data, name)
}

// Parse decodes and validates YAML. source names the input in errors.
func (l *Loader) Parse(data []byte, source string) (*Table, error) {
	var raw types.ExceptionTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %q: %w", source, err)
	}

	if err := l.validateTable(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	t := newTable()
	for _, ex := range raw.Exceptions {
		if err := t.add(ex, source); err != nil {
			return nil, err
		}
	}
	for name, sources := range raw.Tables {
		t.tables[name] = append([]string(nil), sources...)
	}
	return t, nil
}

// LoadDirectory loads every .yaml and .yml file in dir into one table.
// Files that fail to load are reported and skipped; loading continues.
// An identity defined in two files is a duplicate and the later one is
// dropped. Symlinks are skipped.
func (l *Loader) LoadDirectory(dir string) (*Table, []error) {
	merged := newTable()
	var errs []error

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("error accessing %q: %w", path, err))
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			errs = append(errs, fmt.Errorf("skipping symlink: %s", path))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		t, err := l.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}

		for _, e := range t.order {
			if err := merged.add(e.exception, path); err != nil {
				errs = append(errs, err)
			}
		}
		for name, sources := range t.tables {
			merged.tables[name] = sources
		}
		return nil
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to walk directory %q: %w", dir, err))
	}

	return merged, errs
}

// ValidateOnly loads a YAML file and validates it. Returns nil if valid.
func (l *Loader) ValidateOnly(path string) error {
	_, err := l.LoadFile(path)
	return err
}

// validateTable runs schema validation (struct tags) and the checks tags
// cannot express.
func (l *Loader) validateTable(raw types.ExceptionTable) error {
	if err := l.validate.Struct(raw); err != nil {
		return formatValidationErrors(err)
	}

	for i, ex := range raw.Exceptions {
		for _, v := range ex.Versions {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("exceptions[%d] (%s): versions must not contain empty entries", i, ex.Identity)
			}
		}
	}

	for name, sources := range raw.Tables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tables: table name must not be empty")
		}
		if len(sources) == 0 {
			return fmt.Errorf("tables[%q]: at least one source is required", name)
		}
	}

	return nil
}

// formatValidationErrors converts validator errors into user-friendly messages.
func formatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// formatFieldError converts a single field validation error to a human-readable message.
func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "vipscan_slug":
		return fmt.Sprintf("%s must be a slug or file name (letters, digits, '.', '_', '-')", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
