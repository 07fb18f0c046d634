package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/query"
	"github.com/aidanlsb/outsearch/internal/search"
	"github.com/aidanlsb/outsearch/internal/ui"
	"github.com/aidanlsb/outsearch/internal/watcher"
)

const historyFileName = "history"

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run queries interactively",
	Long: `Start an interactive prompt over the outline.

Each line is a query. The outline file is watched while the shell runs, so
results always reflect the latest save. Lines starting with ':' are commands;
type :help to list them. Tab completes field names and tags.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shell is one interactive session.
type shell struct {
	sess  *session
	line  *liner.State
	out   io.Writer
	scope outline.EdgeID
	flat  bool
	ids   bool
}

func runShell(cmd *cobra.Command, args []string) error {
	if isJSONOutput() {
		return handleError(ErrInvalidInput, errors.New("shell is interactive and has no JSON output"), "Use 'outsearch query --json'")
	}

	s, err := openSession(nil)
	if err != nil {
		return sessionError(err)
	}

	w, err := watcher.New(watcher.Config{
		Path:   s.path,
		Format: s.format,
		Handle: s.handle,
		Apply:  s.engine.ApplyChange,
		Logger: log,
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("watcher stopped")
		}
	}()

	sh := &shell{sess: s, line: liner.NewLiner(), out: os.Stdout}
	defer sh.line.Close()
	sh.line.SetCtrlCAborts(true)
	sh.line.SetCompleter(sh.complete)
	sh.loadHistory()
	defer sh.saveHistory()

	fmt.Fprintf(sh.out, "%s %s\n", ui.Bold.Render("outsearch"), ui.Hint(s.path))
	fmt.Fprintln(sh.out, ui.Hint("Type a query, :help for commands, Ctrl-D to quit."))

	for {
		input, err := sh.line.Prompt(sh.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.out)
				return nil
			}
			return handleError(ErrInternal, fmt.Errorf("reading input: %w", err), "")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		sh.line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if quit := sh.command(input); quit {
				return nil
			}
			continue
		}
		sh.run(input)
	}
}

func (sh *shell) prompt() string {
	if sh.scope != "" {
		return fmt.Sprintf("outsearch [%s]> ", sh.scope)
	}
	return "outsearch> "
}

func (sh *shell) run(q string) {
	pr := sh.sess.engine.Parse(q)
	res := sh.sess.engine.Run(pr.Expr, search.Options{ScopeEdgeID: sh.scope})
	renderDiagnostics(sh.out, q, pr.Errors)
	if err := printResult(sh.out, sh.sess.engine, res, sh.scope, sh.flat, sh.ids); err != nil {
		fmt.Fprintln(sh.out, ui.Error(err.Error()))
	}
	saveLastQuery(sh.sess, q, string(sh.scope), res)
}

// command handles a ':' line and reports whether the shell should exit.
func (sh *shell) command(input string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "q", "quit", "exit":
		return true
	case "h", "help":
		sh.printHelp()
	case "parse":
		expr, errs := query.Parse(arg)
		fmt.Fprintln(sh.out, query.Format(expr))
		renderDiagnostics(sh.out, arg, errs)
	case "scope":
		if arg == "" {
			sh.scope = ""
			fmt.Fprintln(sh.out, ui.Hint("Scope cleared"))
			break
		}
		if _, ok := sh.sess.engine.Document(outline.EdgeID(arg)); !ok {
			fmt.Fprintln(sh.out, ui.Errorf("edge %q not found", arg))
			break
		}
		sh.scope = outline.EdgeID(arg)
	case "flat":
		sh.flat = !sh.flat
		fmt.Fprintln(sh.out, ui.Hint(fmt.Sprintf("Flat output %s", onOff(sh.flat))))
	case "ids":
		sh.ids = !sh.ids
		fmt.Fprintln(sh.out, ui.Hint(fmt.Sprintf("Edge IDs %s", onOff(sh.ids))))
	case "stats":
		st := sh.sess.engine.Stats()
		fmt.Fprintf(sh.out, "%d documents, %d nodes, %d tags\n", st.Documents, st.Nodes, len(st.Tags))
	default:
		fmt.Fprintln(sh.out, ui.Errorf("unknown command :%s (type :help)", name))
	}
	return false
}

func (sh *shell) printHelp() {
	tbl := ui.NewTable(2)
	tbl.AddRow(":parse <query>", "show how a query is grouped")
	tbl.AddRow(":scope [edge]", "search only under an edge, or clear the scope")
	tbl.AddRow(":flat", "toggle table output")
	tbl.AddRow(":ids", "toggle edge IDs")
	tbl.AddRow(":stats", "index counts")
	tbl.AddRow(":quit", "leave the shell")
	fmt.Fprint(sh.out, tbl.String())
	fmt.Fprintln(sh.out, ui.Hint("Run 'outsearch syntax' for the query language."))
}

var completionFields = []string{"text:", "path:", "tag:", "type:", "created:", "updated:", "AND", "OR", "NOT"}

var completionCommands = []string{":parse", ":scope", ":flat", ":ids", ":stats", ":help", ":quit"}

// complete expands the last word of the line: commands, field names, and
// known tags after '#' or "tag:".
func (sh *shell) complete(line string) []string {
	start := strings.LastIndexAny(line, " (") + 1
	head, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	var candidates []string
	switch {
	case start == 0 && strings.HasPrefix(word, ":"):
		candidates = completionCommands
	case strings.HasPrefix(word, "#"):
		for _, tc := range sh.sess.engine.Stats().Tags {
			candidates = append(candidates, "#"+tc.Tag)
		}
	case strings.HasPrefix(strings.ToLower(word), "tag:"):
		for _, tc := range sh.sess.engine.Stats().Tags {
			candidates = append(candidates, word[:4]+tc.Tag)
		}
	default:
		candidates = completionFields
	}

	var out []string
	lower := strings.ToLower(word)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			out = append(out, head+c)
		}
	}
	sort.Strings(out)
	return out
}

func (sh *shell) historyPath() string {
	dir := stateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}

func (sh *shell) loadHistory() {
	path := sh.historyPath()
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := sh.line.ReadHistory(f); err != nil {
		log.Debug().Err(err).Msg("failed to read history")
	}
}

func (sh *shell) saveHistory() {
	path := sh.historyPath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Debug().Err(err).Msg("failed to write history")
		return
	}
	defer f.Close()
	_, _ = sh.line.WriteHistory(f)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
