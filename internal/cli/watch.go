package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/search"
	"github.com/aidanlsb/outsearch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <query>",
	Short: "Re-run a query whenever the outline file changes",
	Long: `Watch the outline file and re-run the query after every save.

The index is updated incrementally: only nodes that changed since the
last load are re-indexed. Rapid saves are debounced.

With --json, one response envelope is written per run.

Examples:
  outsearch watch "tag:today NOT type:todo:done"
  outsearch watch --metrics-addr :9090 "#urgent"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("scope", "", "Only search the subtree under this edge ID")
	watchCmd.Flags().Bool("flat", false, "List matches in a table instead of a tree")
	watchCmd.Flags().Bool("ids", false, "Show edge IDs")
	watchCmd.Flags().Duration("debounce", 0, "Delay after the last save before re-running (default from config)")
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}

func runWatch(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")
	scope, _ := cmd.Flags().GetString("scope")
	flat, _ := cmd.Flags().GetBool("flat")
	showIDs, _ := cmd.Flags().GetBool("ids")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	if debounce <= 0 {
		debounce = time.Duration(getConfig().DebounceMS) * time.Millisecond
	}

	s, err := openSession(func(flush func()) {
		time.AfterFunc(debounce, flush)
	})
	if err != nil {
		return sessionError(err)
	}

	opts := search.Options{ScopeEdgeID: outline.EdgeID(scope)}
	if scope != "" {
		if _, ok := s.engine.Document(opts.ScopeEdgeID); !ok {
			return handleError(ErrEdgeNotFound, fmt.Errorf("edge %q not found", scope), "Run 'outsearch query --ids' to see edge IDs")
		}
	}

	// Reloads arrive on the watcher goroutine.
	var printMu sync.Mutex
	run := func() {
		printMu.Lock()
		defer printMu.Unlock()

		start := time.Now()
		pr := s.engine.Parse(q)
		res := s.engine.Run(pr.Expr, opts)
		if isJSONOutput() {
			meta := &Meta{Count: len(res.Matches), QueryTimeMs: time.Since(start).Milliseconds()}
			outputSuccessWithWarnings(newQueryView(s.engine, pr, res), diagnosticWarnings(pr.Errors), meta)
			return
		}
		fmt.Printf("\n%s\n", time.Now().Format("15:04:05"))
		renderDiagnostics(os.Stderr, q, pr.Errors)
		if err := printResult(os.Stdout, s.engine, res, opts.ScopeEdgeID, flat, showIDs); err != nil {
			log.Error().Err(err).Msg("render failed")
		}
	}

	w, err := watcher.New(watcher.Config{
		Path:          s.path,
		Format:        s.format,
		Handle:        s.handle,
		Apply:         s.engine.ApplyChange,
		DebounceDelay: debounce,
		Logger:        log,
		OnReload: func(changes int, err error) {
			if err != nil {
				log.Warn().Err(err).Str("path", s.path).Msg("reload failed, keeping previous outline")
				return
			}
			if changes > 0 {
				run()
			}
		},
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsHandler(s),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", metricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if !isJSONOutput() {
		fmt.Printf("Watching %s\n", s.path)
		fmt.Println("Press Ctrl+C to stop")
	}
	run()

	g.Go(func() error {
		if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return handleError(ErrInternal, err, "")
	}
	return nil
}

func metricsHandler(s *session) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}
