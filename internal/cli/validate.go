package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slicemap/internal/scenario"
)

// FileError is one scenario file that failed to load.
type FileError struct {
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Files  int         `json:"files"`
	Errors []FileError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files: YAML syntax, the embedded CUE schema and
references to catalog actions, transforms, mappers and slices.

Each path is a scenario file or a directory searched for *.yaml and *.yml.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("path not found: %s", p), nil)
			return WrapExitError(ExitCommandError, "path not found", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := findScenarioFiles(p, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		formatter.VerboseLog("Found %d scenario file(s) in %s", len(found), p)
		files = append(files, found...)
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, f := range files {
		formatter.VerboseLog("Validating %s", f)
		if _, err := scenario.Load(f); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, toFileError(f, err))
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d scenario file(s) valid\n", result.Files)
	return nil
}

func toFileError(path string, err error) FileError {
	fe := FileError{Path: path, Message: err.Error()}
	var loadErr *scenario.LoadError
	if errors.As(err, &loadErr) {
		fe.Field = loadErr.Field
		fe.Message = loadErr.Message
	}
	return fe
}

// outputValidationErrors reports every invalid file.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		first := result.Errors[0]
		if err := writeJSON(formatter.Writer, CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalidScenario,
				Message: fmt.Sprintf("%s: %s", first.Path, first.Message),
			},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, fe := range result.Errors {
		fmt.Fprintln(formatter.Writer, fe.Path)
		if fe.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", fe.Field, fe.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n\n", fe.Message)
		}
	}
	return failure
}
