// Package cli provides CLI output formatting and display functions.
// Status and error messages go to stderr; stdout is reserved for the
// serialized dataset so the command composes with shell pipes.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blogfeed/aggregator/internal/config"
	"github.com/blogfeed/aggregator/internal/pipeline"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	Pretty  bool
}

// PrintRunResult writes the serialized dataset to stdout and a run summary
// to stderr.
func PrintRunResult(result *pipeline.Result, opts OutputOptions) error {
	if err := writeDataset(os.Stdout, result.Output, opts.Pretty); err != nil {
		return err
	}

	if opts.Quiet {
		return nil
	}

	fmt.Fprintf(os.Stderr, "✓ Feed aggregated: %d records\n", result.Records)
	printSourceStatus(os.Stderr, result.Report.Posts)
	printSourceStatus(os.Stderr, result.Report.Comments)
	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "  Duration: %v\n", result.Duration)
	}
	return nil
}

func writeDataset(w io.Writer, output string, pretty bool) error {
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(output), "", "  "); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		output = buf.String()
	}
	_, err := fmt.Fprintln(w, output)
	return err
}

func printSourceStatus(w io.Writer, status blog.SourceStatus) {
	if status.Degraded {
		fmt.Fprintf(w, "  ⚠ %s: fetch failed, used empty collection (%s)\n", status.Name, status.Error)
		return
	}
	fmt.Fprintf(w, "  %s: %d records\n", status.Name, status.Records)
}

// PrintParseErrors displays configuration parse errors.
func PrintParseErrors(errors []config.ParseError, opts OutputOptions) {
	fmt.Fprintln(os.Stderr, "✗ Parse errors:")
	for _, err := range errors {
		var location string
		if err.Path != "" {
			location = err.Path
			if err.Line > 0 {
				location += fmt.Sprintf(":%d", err.Line)
				if err.Column > 0 {
					location += fmt.Sprintf(":%d", err.Column)
				}
			}
		}

		if location != "" {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", location, err.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
		}

		if opts.Verbose && err.Type != "" {
			fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
		}
	}
}

// PrintValidationErrors displays schema validation errors.
func PrintValidationErrors(errors []config.ValidationError, opts OutputOptions) {
	fmt.Fprintln(os.Stderr, "✗ Validation errors:")
	for _, err := range errors {
		path := err.Path
		if path == "" {
			path = "/"
		}

		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "  %s:\n", path)
			fmt.Fprintf(os.Stderr, "    Message: %s\n", err.Message)
			if err.Type != "" {
				fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
			}
		} else {
			shortMsg := err.Message
			if len(shortMsg) > 80 {
				shortMsg = shortMsg[:77] + "..."
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", path, shortMsg)
		}
	}

	if !opts.Quiet {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hint: Use --verbose for detailed error information")
	}
}

// PrintConfigSummary prints the feed name and description if available.
func PrintConfigSummary(data map[string]interface{}) {
	feed, ok := data["feed"].(map[string]interface{})
	if !ok {
		return
	}

	if name, ok := feed["name"].(string); ok {
		fmt.Fprintf(os.Stderr, "  Feed: %s\n", name)
	}
	if description, ok := feed["description"].(string); ok && description != "" {
		fmt.Fprintf(os.Stderr, "  Description: %s\n", description)
	}
}
