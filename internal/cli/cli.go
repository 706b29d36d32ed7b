// Package cli implements the tandem command line interface.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tandemhq/tandem/internal/config"
	"github.com/tandemhq/tandem/internal/journal"
	"github.com/tandemhq/tandem/internal/logging"
	"github.com/tandemhq/tandem/internal/mcpserver"
	"github.com/tandemhq/tandem/internal/report"
	"github.com/tandemhq/tandem/internal/tui"
	"github.com/tandemhq/tandem/internal/workspace"
	"github.com/tandemhq/tandem/pkg/patch"
)

const version = "0.1.0"

// renderWidth is the word-wrap width for markdown rendered to the terminal.
const renderWidth = 100

// Run executes the tandem CLI with the provided arguments. It returns a
// POSIX-style exit code: 0 on success, 1 on a runtime failure, 2 on a
// usage error.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "diff":
		return runDiff(rest, stdout, stderr)
	case "apply":
		return runApply(ctx, rest, stdout, stderr)
	case "show":
		return runShow(rest, stdout, stderr)
	case "review":
		return runReview(ctx, rest, stdout, stderr)
	case "revert":
		return runRevert(ctx, rest, stdout, stderr)
	case "log":
		return runLog(ctx, rest, stdout, stderr)
	case "serve":
		return runServe(rest, stderr)
	case "version":
		fmt.Fprintln(stdout, "tandem "+version)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `tandem manages line-oriented patches for agent-driven editing.

Usage:

  tandem <command> [flags] [args]

Commands:

  diff OLD NEW       compute a patch that rewrites OLD into NEW
  apply FILE PATCH   apply a patch file to FILE and record it in the journal
  show PATCH [FILE]  print a readable summary of a patch file
  review FILE PATCH  review a patch interactively before applying it
  revert [PATH]      invert and re-apply the latest journal entry (or --id N)
  log                list recorded journal entries
  serve              run the MCP tool server on stdio (or --sse ADDR)
  version            print the tandem version

Run "tandem <command> -h" for command flags.
`)
}

func setUsage(fs *flag.FlagSet, stderr io.Writer, line string) {
	fs.Usage = func() {
		fmt.Fprintln(stderr, line)
		fs.PrintDefaults()
	}
}

// bootstrap loads the configuration and builds the logger shared by the
// stateful subcommands.
func bootstrap(configPath string, stderr io.Writer) (*config.Config, zerolog.Logger, bool) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return nil, zerolog.Nop(), false
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return nil, zerolog.Nop(), false
	}
	return cfg, logger, true
}

// readLines loads a file as patchable lines, treating a missing file as
// empty so diffs can express creation and deletion.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return patch.SplitLines(text), nil
}

// conflictMessage adds a recovery hint when a patch no longer matches its
// target file.
func conflictMessage(err error) string {
	var conflict *patch.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Sprintf("%v\nThe file changed since the patch was created; regenerate it with tandem diff or pass --lenient.", err)
	}
	return err.Error()
}

// emit prints markdown either raw or rendered for the terminal.
func emit(md string, plain bool, stdout, stderr io.Writer) int {
	if plain {
		fmt.Fprint(stdout, md)
		return 0
	}
	out, err := report.Render(md, renderWidth)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprint(stdout, out)
	return 0
}

func runDiff(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "write the patch to this file instead of stdout")
	unified := fs.Bool("unified", false, "print a unified diff instead of patch JSON")
	setUsage(fs, stderr, "usage: tandem diff OLD NEW [-o FILE] [--unified]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	a, err := readLines(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "reading %s: %v\n", fs.Arg(0), err)
		return 1
	}
	b, err := readLines(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "reading %s: %v\n", fs.Arg(1), err)
		return 1
	}

	set := patch.Create(a, b)
	if *unified {
		fmt.Fprint(stdout, set.Unified(fs.Arg(0), a))
		return 0
	}

	if *out != "" {
		if err := set.WriteFile(*out); err != nil {
			fmt.Fprintf(stderr, "writing %s: %v\n", *out, err)
			return 1
		}
		s := set.Stats()
		fmt.Fprintf(stdout, "Wrote %s: %d hunks, %d insertions(+), %d deletions(-).\n",
			*out, s.Hunks, s.Insertions, s.Deletions)
		return 0
	}

	data, err := set.Encode()
	if err != nil {
		fmt.Fprintf(stderr, "encoding patch: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}

func runApply(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	lenient := fs.Bool("lenient", false, "skip hunks that no longer match instead of failing")
	dryRun := fs.Bool("dry-run", false, "report what would change without writing")
	note := fs.String("note", "", "note to record alongside the journal entry")
	setUsage(fs, stderr, "usage: tandem apply FILE PATCH [flags]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	cfg, logger, ok := bootstrap(*configPath, stderr)
	if !ok {
		return 1
	}

	set, err := patch.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "reading patch: %v\n", err)
		return 1
	}

	ws, err := workspace.New(cfg.Workspace.Root, cfg.Workspace.Lenient || *lenient)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	path := fs.Arg(0)
	if *dryRun {
		base, _, err := ws.ReadLines(path)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		// In lenient mode the recorded hunks are not necessarily what gets
		// applied, so preview the effective change instead.
		display := set
		if ws.Lenient() {
			display = patch.Create(base, patch.ApplyLenient(base, set))
		} else if _, err := patch.Apply(base, set); err != nil {
			fmt.Fprintln(stderr, conflictMessage(err))
			return 1
		}
		s := display.Stats()
		fmt.Fprintf(stdout, "Dry run: %s applies to %s (%d hunks, %d insertions(+), %d deletions(-)).\n",
			fs.Arg(1), path, s.Hunks, s.Insertions, s.Deletions)
		fmt.Fprint(stdout, display.Unified(path, base))
		return 0
	}

	results, err := ws.Apply(ctx, []workspace.Plan{{Path: path, Set: set}})
	if err != nil {
		fmt.Fprintln(stderr, conflictMessage(err))
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintf(stdout, "Patch left %s unchanged; nothing recorded.\n", path)
		return 0
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(stderr, "patch applied, but opening the journal failed: %v\n", err)
		return 1
	}
	defer store.Close()

	id, err := store.Record(ctx, path, set, *note)
	if err != nil {
		fmt.Fprintf(stderr, "patch applied, but recording it failed: %v\n", err)
		return 1
	}
	if _, err := store.Prune(ctx, cfg.Journal.Keep); err != nil {
		logger.Warn().Err(err).Msg("journal prune failed")
	}

	s := set.Stats()
	logger.Info().
		Str("path", path).
		Str("status", results[0].Status).
		Int64("entry", id).
		Msg("patch applied")
	fmt.Fprintf(stdout, "Applied %s to %s (status %s): %d hunks, %d insertions(+), %d deletions(-). Journal entry %d.\n",
		fs.Arg(1), path, results[0].Status, s.Hunks, s.Insertions, s.Deletions, id)
	return 0
}

func runShow(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	plain := fs.Bool("plain", false, "print raw markdown without terminal styling")
	setUsage(fs, stderr, "usage: tandem show PATCH [FILE] [--plain]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 && fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	set, err := patch.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "reading patch: %v\n", err)
		return 1
	}
	if fs.NArg() == 1 {
		return emit(report.SetMarkdown(filepath.Base(fs.Arg(0)), set), *plain, stdout, stderr)
	}

	// With a base file the hunks can be shown in context as a unified diff.
	base, err := readLines(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if _, err := patch.Apply(base, set); err != nil {
		fmt.Fprintf(stderr, "%v\nThe patch does not match %s; regenerate it with tandem diff.\n", err, fs.Arg(1))
		return 1
	}
	return emit(report.Markdown([]report.File{{Path: fs.Arg(1), Base: base, Set: set}}), *plain, stdout, stderr)
}

func runReview(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	note := fs.String("note", "", "note to record alongside the journal entry")
	setUsage(fs, stderr, "usage: tandem review FILE PATCH [flags]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	cfg, logger, ok := bootstrap(*configPath, stderr)
	if !ok {
		return 1
	}

	set, err := patch.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "reading patch: %v\n", err)
		return 1
	}

	ws, err := workspace.New(cfg.Workspace.Root, false)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	path := fs.Arg(0)
	base, _, err := ws.ReadLines(path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	decisions, err := tui.Run(ctx, []tui.File{{Path: path, Base: base, Set: set}})
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(stdout, "Review aborted; nothing applied.")
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	plans := make([]workspace.Plan, 0, len(decisions))
	for _, d := range decisions {
		if d.Accepted {
			plans = append(plans, workspace.Plan{Path: d.Path, Set: set})
		}
	}
	if len(plans) == 0 {
		fmt.Fprintln(stdout, "Nothing accepted; no changes applied.")
		return 0
	}

	results, err := ws.Apply(ctx, plans)
	if err != nil {
		fmt.Fprintln(stderr, conflictMessage(err))
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintf(stdout, "Patch left %s unchanged; nothing recorded.\n", path)
		return 0
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(stderr, "patch applied, but opening the journal failed: %v\n", err)
		return 1
	}
	defer store.Close()

	id, err := store.Record(ctx, path, set, *note)
	if err != nil {
		fmt.Fprintf(stderr, "patch applied, but recording it failed: %v\n", err)
		return 1
	}
	logger.Info().Str("path", path).Int64("entry", id).Msg("reviewed patch applied")
	fmt.Fprintf(stdout, "Applied %s to %s (status %s). Journal entry %d.\n",
		fs.Arg(1), path, results[0].Status, id)
	return 0
}

func runRevert(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("revert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	id := fs.Int64("id", 0, "journal entry to revert (default: the latest)")
	setUsage(fs, stderr, "usage: tandem revert [PATH] [--id N]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	cfg, logger, ok := bootstrap(*configPath, stderr)
	if !ok {
		return 1
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer store.Close()

	var entry journal.Entry
	if *id > 0 {
		entry, err = store.Get(ctx, *id)
	} else {
		entry, err = store.Latest(ctx, fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	set, err := entry.Set()
	if err != nil {
		fmt.Fprintf(stderr, "decoding entry %d: %v\n", entry.ID, err)
		return 1
	}

	ws, err := workspace.New(cfg.Workspace.Root, false)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	inverse := set.Invert()
	results, err := ws.Apply(ctx, []workspace.Plan{{Path: entry.Path, Set: inverse}})
	if err != nil {
		fmt.Fprintln(stderr, conflictMessage(err))
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintf(stdout, "Reverting entry %d left %s unchanged.\n", entry.ID, entry.Path)
		return 0
	}

	revID, err := store.Record(ctx, entry.Path, inverse, fmt.Sprintf("revert of entry %d", entry.ID))
	if err != nil {
		fmt.Fprintf(stderr, "revert applied, but recording it failed: %v\n", err)
		return 1
	}
	logger.Info().
		Int64("entry", entry.ID).
		Int64("revert_entry", revID).
		Str("path", entry.Path).
		Msg("patch reverted")
	fmt.Fprintf(stdout, "Reverted entry %d on %s (status %s). Journal entry %d.\n",
		entry.ID, entry.Path, results[0].Status, revID)
	return 0
}

func runLog(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	limit := fs.Int("n", 20, "maximum number of entries to list")
	id := fs.Int64("id", 0, "show one entry in full instead of the list")
	plain := fs.Bool("plain", false, "print raw markdown without terminal styling")
	setUsage(fs, stderr, "usage: tandem log [-n N] [--id N] [--plain]")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _, ok := bootstrap(*configPath, stderr)
	if !ok {
		return 1
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer store.Close()

	if *id > 0 {
		entry, err := store.Get(ctx, *id)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		md, err := report.EntryMarkdown(entry)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		return emit(md, *plain, stdout, stderr)
	}

	entries, err := store.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return emit(report.LogMarkdown(entries), *plain, stdout, stderr)
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	sseAddr := fs.String("sse", "", "serve MCP over HTTP SSE on this address instead of stdio")
	setUsage(fs, stderr, "usage: tandem serve [--sse ADDR] [flags]")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, logger, ok := bootstrap(*configPath, stderr)
	if !ok {
		return 1
	}

	ws, err := workspace.New(cfg.Workspace.Root, cfg.Workspace.Lenient)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer store.Close()

	srv := mcpserver.New(ws, store, version)
	if *sseAddr != "" {
		logger.Info().Str("root", ws.Root()).Str("addr", *sseAddr).Str("version", version).Msg("serving MCP tools over SSE")
		if err := mcpserver.ServeSSE(srv, *sseAddr); err != nil {
			fmt.Fprintf(stderr, "serve: %v\n", err)
			return 1
		}
		return 0
	}

	// Stdout belongs to the MCP protocol from here on; logs go to stderr
	// or the configured file.
	logger.Info().Str("root", ws.Root()).Str("version", version).Msg("serving MCP tools on stdio")
	if err := mcpserver.Serve(srv); err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}
