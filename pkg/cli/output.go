package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
	FormatRaw  OutputFormat = "raw"
)

// OutputOptions configures Output.
type OutputOptions struct {
	Format OutputFormat

	// File is the destination path; empty writes to stdout.
	File string

	// Indent is the JSON indentation, two spaces by default.
	Indent string

	// Writer overrides File.
	Writer io.Writer

	// Query is a jq expression applied before formatting. Each value it
	// produces is written as a separate document.
	Query string
}

// Output writes result to the configured destination.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Query == "" {
		return write(w, result, opts)
	}
	values, err := RunQuery(opts.Query, result)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := write(w, v, opts); err != nil {
			return err
		}
	}
	return nil
}

func write(w io.Writer, v any, opts OutputOptions) error {
	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, v, opts.Indent)
	case FormatYAML, "":
		return outputYAML(w, v)
	case FormatRaw:
		return outputRaw(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// RunQuery evaluates a jq expression over result. result is first
// normalized through JSON so struct tags decide the field names.
func RunQuery(expr string, result any) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	var out []any
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return out, nil
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return out, nil
			}
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		out = append(out, v)
	}
}

func outputJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(v)
}

func outputYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, v any) error {
	switch v := v.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		return outputYAML(w, v)
	}
}

// PrintSuccess prints a success message with a checkmark.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func PrintInfo(format string, args ...any) {
	fmt.Printf("ℹ "+format+"\n", args...)
}

func PrintWarning(format string, args ...any) {
	fmt.Printf("⚠ "+format+"\n", args...)
}

// PrintVerbose prints to stderr when verbose is set.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
