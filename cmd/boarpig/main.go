// Command boarpig turns transcribed page text into a structured project
// file and renders it as HTML, EPUB, TEI, plain text or Markdown.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/boarpig/core/markup"
	"github.com/FocuswithJustin/boarpig/core/render"
	"github.com/FocuswithJustin/boarpig/internal/archive"
	"github.com/FocuswithJustin/boarpig/internal/logging"
	"github.com/FocuswithJustin/boarpig/internal/project"
	"github.com/FocuswithJustin/boarpig/internal/validation"
)

const version = "0.4.0"

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for boarpig.
var CLI struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"BOARPIG_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (auto, text, json)" default:"auto" env:"BOARPIG_LOG_FORMAT"`

	Make    MakeCmd    `cmd:"" help:"Merge page text, parse it and write the project and text exports"`
	Gen     GenCmd     `cmd:"" help:"Render a project in an output format"`
	Lex     LexCmd     `cmd:"" help:"Print the tokens of a markup file"`
	Parse   ParseCmd   `cmd:"" help:"Parse a markup file and print its outline"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// MakeCmd builds proj/project.bpp and the text exports.
type MakeCmd struct {
	Dir     string `arg:"" help:"Project directory" type:"existingdir"`
	Clobber bool   `help:"Re-merge page text even if proj/project.bpp exists"`
	Width   int    `help:"Wrap the plain-text export at this column" default:"0" env:"BOARPIG_WIDTH"`
}

func (c *MakeCmd) Run() error {
	if err := validation.ValidatePath(c.Dir); err != nil {
		return fmt.Errorf("invalid project path: %w", err)
	}
	files, err := project.Make(context.Background(), c.Dir, project.MakeOptions{
		Clobber: c.Clobber,
		Width:   c.Width,
	})
	if err != nil {
		return fmt.Errorf("make failed: %w", err)
	}
	for _, f := range files {
		fmt.Fprintf(stdout, "wrote %s/%s (%d bytes)\n", project.ProjDir, f.Path, len(f.Content))
	}
	logging.Info("make complete", "dir", c.Dir, "files", len(files))
	return nil
}

// GenCmd renders a project.
type GenCmd struct {
	Dir    string   `arg:"" help:"Project directory" type:"existingdir"`
	Format string   `short:"f" help:"Output format (html, html-single, epub, tei, text, outline, md, md-html)" default:"html" env:"BOARPIG_FORMAT"`
	Out    string   `short:"o" help:"Output directory (default DIR/out/FORMAT)" type:"path"`
	Bundle string   `help:"Pack outputs into a tar bundle compressed with xz or gz"`
	Asset  []string `help:"Image or stylesheet to pack into an EPUB" type:"existingfile"`
	Check  bool     `help:"Validate XML, XHTML and EPUB outputs"`
	Width  int      `help:"Wrap the plain-text export at this column" default:"0" env:"BOARPIG_WIDTH"`
	Epoch  int64    `help:"Timestamp for EPUB and bundle metadata, in Unix seconds" env:"SOURCE_DATE_EPOCH"`
}

func (c *GenCmd) Run() error {
	if err := validation.ValidatePath(c.Dir); err != nil {
		return fmt.Errorf("invalid project path: %w", err)
	}
	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	opts := project.GenOptions{
		Format: format,
		Out:    c.Out,
		Assets: c.Asset,
		Check:  c.Check,
		Width:  c.Width,
	}
	if c.Bundle != "" {
		if opts.Bundle, err = archive.ParseCompression(c.Bundle); err != nil {
			return err
		}
	}
	if c.Width > 0 && format != render.FormatText {
		logging.Warn("width only applies to the text format", "format", format, "width", c.Width)
	}
	if c.Epoch > 0 {
		opts.Modified = time.Unix(c.Epoch, 0).UTC()
	}

	written, err := project.Gen(context.Background(), c.Dir, opts)
	if err != nil {
		return fmt.Errorf("gen failed: %w", err)
	}
	for _, p := range written {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	logging.Info("gen complete", "dir", c.Dir, "format", format, "files", len(written))
	return nil
}

// LexCmd prints tokens, one per line.
type LexCmd struct {
	File string `arg:"" help:"Markup file" type:"existingfile"`
}

func (c *LexCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	tokens, err := markup.Lex(string(data))
	if err != nil {
		return err
	}
	logging.Debug("lexed", "file", c.File, "tokens", len(tokens))
	for _, t := range tokens {
		fmt.Fprintln(stdout, t)
	}
	return nil
}

// ParseCmd parses a file and prints its outline or canonical form.
type ParseCmd struct {
	File      string `arg:"" help:"Markup file" type:"existingfile"`
	Strict    bool   `help:"Parse without autoformatting, as for a saved project"`
	Canonical bool   `help:"Print canonical markup instead of the outline"`
}

func (c *ParseCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	tree, err := markup.ParseProject(string(data), c.Strict)
	if err != nil {
		return err
	}
	logging.Debug("parsed", "file", c.File, "strict", c.Strict, "elements", len(tree.Children))
	if c.Canonical {
		fmt.Fprintln(stdout, strings.TrimSpace(markup.Unparse(tree, markup.UnparseOptions{})))
		return nil
	}
	outline, err := render.Outline(tree)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, outline)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "boarpig version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("boarpig"),
		kong.Description("boarpig - structured markup for transcribed books"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat), os.Stderr)
	err := ctx.Run(ctx)
	if err != nil {
		logging.Error("command failed", "command", ctx.Command(), "error", err)
	}
	ctx.FatalIfErrorf(err)
}
