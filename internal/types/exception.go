package types

// Exception is one pre-classified identity from the override table.
// A matching exception short-circuits scanning with its recorded verdict.
type Exception struct {
	// Identity is the plugin/theme slug or mu-plugin file name.
	Identity string `yaml:"identity" json:"identity" validate:"required,vipscan_slug"`

	// Category selects which kind of target the exception applies to.
	Category Category `yaml:"category" json:"category" validate:"required,oneof=plugin theme mu-plugin general"`

	// Verdict is the pre-known result: "compatible" or "incompatible".
	Verdict Status `yaml:"verdict" json:"verdict" validate:"required,oneof=compatible incompatible"`

	// Source attributes the classification (e.g. "automattic", "wp-engine", "tested").
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Versions pins the exception to specific versions. Empty means any version.
	Versions []string `yaml:"versions,omitempty" json:"versions,omitempty"`

	// Note is shown alongside the verdict.
	Note string `yaml:"note,omitempty" json:"note,omitempty"`
}

// ExceptionTable is the caller-supplied override table.
type ExceptionTable struct {
	// Exceptions are pre-classified plugins, themes, and mu-plugins.
	Exceptions []Exception `yaml:"exceptions" validate:"dive"`

	// Tables attributes database tables (without or with the wp_ prefix)
	// to the plugins that create them.
	Tables map[string][]string `yaml:"tables,omitempty"`
}
