package cli

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rickgorman/testbed/internal/config"
	"github.com/rickgorman/testbed/internal/logstream"
	"github.com/rickgorman/testbed/internal/ports"
	"github.com/rickgorman/testbed/internal/scenario"
	"github.com/rickgorman/testbed/pkg/logger"
)

type rootOptions struct {
	file     string
	logLevel string
	noProbe  bool
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "testbed",
		Short: "Run disposable container scenarios for integration tests",
		Long: `testbed starts the containers of a scenario file with collision-free
host ports, follows their logs and tears them down again.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.logLevel != "" {
				logger.SetLevel(opts.logLevel)
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", config.DefaultFile, "scenario file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noProbe, "no-probe", false, "treat every host port as free")

	root.AddCommand(
		newResolveCommand(opts),
		newUpCommand(opts),
		newDownCommand(opts),
		newLogsCommand(opts),
		newPsCommand(opts),
	)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.File, *scenario.Scenario, error) {
	f, err := config.Load(o.file)
	if err != nil {
		return nil, nil, err
	}

	var extra []scenario.Option
	if o.noProbe {
		allocOpts := []ports.Option{
			ports.WithProber(ports.ProbeFunc(func(string, int) bool { return true })),
		}
		if f.MaxPortAttempts > 0 {
			allocOpts = append(allocOpts, ports.WithMaxAttempts(f.MaxPortAttempts))
		}
		extra = append(extra, scenario.WithAllocator(ports.NewAllocator(allocOpts...)))
	}

	s, err := f.Scenario(logger.Default(), extra...)
	if err != nil {
		return nil, nil, err
	}
	return f, s, nil
}

// buildFilter turns --redact patterns and --strip-ansi into a stream filter.
func buildFilter(patterns []string, stripANSI bool) (logstream.Filter, error) {
	var filters []logstream.Filter
	if stripANSI {
		filters = append(filters, logstream.StripANSI)
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid --redact pattern %q: %w", p, err)
		}
		filters = append(filters, logstream.Redact(re, "***"))
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return logstream.Chain(filters...), nil
}

// lineWriter serializes whole lines from concurrent followers.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) Println(prefix, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prefix == "" {
		fmt.Fprintln(l.w, line)
		return
	}
	fmt.Fprintf(l.w, "%s | %s\n", prefix, line)
}

// follow prints every line of stream until it ends. until, when set,
// stops at the first line containing it and reports whether it was seen.
func follow(stream *logstream.Stream, out *lineWriter, prefix, until string) (bool, error) {
	_, err := stream.WaitFor(func(line string) bool {
		out.Println(prefix, line)
		return until != "" && strings.Contains(line, until)
	})
	if err == nil {
		return true, nil
	}
	return false, stream.Err()
}
