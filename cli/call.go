package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skosovsky/toolserver"
	"github.com/skosovsky/toolserver/mcp"
)

// NewCallCmd creates the "call" subcommand, which runs one tool in-process.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one tool call in-process and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	cmd.Flags().StringArray("arg", nil, "Tool argument as key=value (repeatable)")
	cmd.Flags().String("args-json", "", "Tool arguments as a JSON object")
	cmd.Flags().Bool("json", false, "Print the HTTP envelope as JSON")
	cmd.Flags().Bool("render", false, "Render result text as markdown")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	return cmd
}

func runCall(cmd *cobra.Command, positional []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pairs, _ := cmd.Flags().GetStringArray("arg")
	rawJSON, _ := cmd.Flags().GetString("args-json")
	asJSON, _ := cmd.Flags().GetBool("json")
	render, _ := cmd.Flags().GetBool("render")
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor {
		color.NoColor = true
	}

	args, err := parseCallArgs(rawJSON, pairs)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}
	defer func() { _ = a.close(cmd.Context()) }()

	content, execErr := a.dispatcher.Execute(cmd.Context(), toolserver.ToolCall{
		ID:       uuid.NewString(),
		ToolName: positional[0],
		Args:     args,
	})

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(mcp.NewEnvelope(content, execErr)); err != nil {
			return exitError(exitRuntime, "%v", err)
		}
	} else if err := printContent(out, content, execErr, render); err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	if execErr != nil {
		return exitError(exitTool, "tool call failed: %v", execErr)
	}
	return nil
}

// parseCallArgs merges a JSON object with key=value pairs; pairs win and are always strings.
func parseCallArgs(rawJSON string, pairs []string) (toolserver.Arguments, error) {
	args := toolserver.Arguments{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &args); err != nil {
			return nil, fmt.Errorf("--args-json: %w", err)
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--arg %q: want key=value", p)
		}
		args[strings.TrimSpace(key)] = value
	}
	return args, nil
}

func printContent(w io.Writer, content []toolserver.ContentItem, execErr error, render bool) error {
	if execErr != nil {
		_, err := color.New(color.FgRed, color.Bold).Fprintf(w, "error: %v\n", execErr)
		return err
	}
	var renderer *glamour.TermRenderer
	if render {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return err
		}
		renderer = r
	}
	for _, it := range content {
		if it.IsError {
			if _, err := color.New(color.FgRed).Fprintln(w, it.Text); err != nil {
				return err
			}
			continue
		}
		text := it.Text
		if renderer != nil {
			rendered, err := renderer.Render(text)
			if err != nil {
				return err
			}
			text = rendered
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return nil
}
