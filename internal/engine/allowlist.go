package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandSpec defines the constraints for an allowlisted command.
type CommandSpec struct {
	// Path is the resolved absolute path to the command binary.
	// Resolved at construction time via exec.LookPath, with a fallback.
	Path string

	// FallbackPath is the path used when LookPath fails.
	FallbackPath string

	// AllowedFlags are the exact flags that can be passed.
	AllowedFlags []string

	// MaxArgs is the maximum number of positional (non-flag) arguments allowed.
	MaxArgs int

	// Timeout is the maximum execution time for this command.
	Timeout time.Duration

	// NonZeroOK accepts output from a non-zero exit. Linters exit non-zero
	// when they report issues.
	NonZeroOK bool
}

// AllowlistExecutor executes only pre-approved commands with validated arguments.
// It never invokes a shell. Scanned code is never executed through it.
type AllowlistExecutor struct {
	allowlist map[string]CommandSpec
}

// PHPCSCommand is the allowlist key for the PHP_CodeSniffer binary.
const PHPCSCommand = "phpcs"

// PHPCS flags accepted by the executor.
var phpcsFlags = []string{
	"-q",
	"-s",
	"--report=emacs",
	"--standard=WordPress-VIP-Go",
	"--sniffs=WordPress.WP.AlternativeFunctions,WordPress.PHP.DiscouragedPHPFunctions",
	"--extensions=php",
}

// resolveCommandPath attempts to find the command using exec.LookPath.
// Falls back to the provided default path if LookPath fails.
func resolveCommandPath(name, fallbackPath string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return fallbackPath
}

// NewAllowlistExecutor creates an executor that may run phpcs only.
// An explicit phpcsPath (from configuration) wins over PATH lookup.
func NewAllowlistExecutor(phpcsPath string) *AllowlistExecutor {
	path := phpcsPath
	if path == "" {
		path = resolveCommandPath(PHPCSCommand, "/usr/local/bin/phpcs")
	}

	return &AllowlistExecutor{allowlist: map[string]CommandSpec{
		PHPCSCommand: {
			Path:         path,
			FallbackPath: "/usr/local/bin/phpcs",
			AllowedFlags: phpcsFlags,
			MaxArgs:      1,
			Timeout:      2 * time.Minute,
			NonZeroOK:    true,
		},
	}}
}

// IsAllowed checks whether a command is in the allowlist.
func (e *AllowlistExecutor) IsAllowed(cmd string) bool {
	_, ok := e.allowlist[cmd]
	return ok
}

// Available reports whether the command is allowlisted and its binary resolves.
func (e *AllowlistExecutor) Available(cmd string) bool {
	spec, ok := e.allowlist[cmd]
	if !ok || spec.Path == "" {
		return false
	}
	_, err := exec.LookPath(spec.Path)
	return err == nil
}

// Execute runs an allowlisted command with validated arguments and returns
// its stdout. The command timeout bounds the run in addition to ctx.
func (e *AllowlistExecutor) Execute(ctx context.Context, cmd string, args []string) ([]byte, error) {
	spec, ok := e.allowlist[cmd]
	if !ok {
		return nil, fmt.Errorf("command %q not in allowlist", cmd)
	}

	if err := ValidateArgs(spec, args); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	execCmd := exec.CommandContext(ctx, spec.Path, args...)
	output, err := execCmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("command %q timed out after %v", cmd, spec.Timeout)
	}

	var exitErr *exec.ExitError
	if err != nil && spec.NonZeroOK && errors.As(err, &exitErr) {
		return output, nil
	}

	return output, err
}

// ValidateArgs checks that all arguments comply with the CommandSpec constraints.
func ValidateArgs(spec CommandSpec, args []string) error {
	positionalCount := 0

	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			if !isAllowedFlag(spec.AllowedFlags, arg) {
				return fmt.Errorf("flag %q not allowed for this command (allowed: %s)",
					arg, strings.Join(spec.AllowedFlags, ", "))
			}
		} else {
			positionalCount++
		}
	}

	if positionalCount > spec.MaxArgs {
		return fmt.Errorf("too many positional arguments: got %d, max %d",
			positionalCount, spec.MaxArgs)
	}

	return nil
}

// isAllowedFlag checks if a flag is in the allowed list.
func isAllowedFlag(allowed []string, flag string) bool {
	for _, f := range allowed {
		if f == flag {
			return true
		}
	}
	return false
}
