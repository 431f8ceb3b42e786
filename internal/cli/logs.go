package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/logstream"
	"github.com/rickgorman/testbed/pkg/logger"
)

type logsOptions struct {
	tail      string
	since     string
	noFollow  bool
	until     string
	timeout   time.Duration
	redact    []string
	stripANSI bool
}

func newLogsCommand(root *rootOptions) *cobra.Command {
	opts := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs NAME",
		Short: "Print the output of one scenario container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(opts.redact, opts.stripANSI)
			if err != nil {
				return err
			}

			_, s, err := root.load()
			if err != nil {
				return err
			}

			rt, err := container.NewClient(logger.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Docker: %w", err)
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}

			if _, err := s.Adopt(ctx, rt); err != nil {
				return err
			}

			stream, err := s.Logs(ctx, rt, args[0], container.LogOptions{
				Tail:     opts.tail,
				Since:    opts.since,
				NoFollow: opts.noFollow,
			}, logstream.WithPrint(false), logstream.WithFilter(filter))
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				_ = stream.Close()
			}()
			defer stream.Close()

			seen, err := follow(stream, &lineWriter{w: cmd.OutOrStdout()}, "", opts.until)
			if err != nil {
				return err
			}
			if opts.until != "" && !seen {
				return fmt.Errorf("output of %s ended without %q", args[0], opts.until)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.tail, "tail", "all", "number of lines to show from the end")
	cmd.Flags().StringVar(&opts.since, "since", "", "show output since a timestamp or relative duration")
	cmd.Flags().BoolVar(&opts.noFollow, "no-follow", false, "print existing output and exit")
	cmd.Flags().StringVar(&opts.until, "until", "", "exit once a line contains this text")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "give up after this long")
	cmd.Flags().StringArrayVar(&opts.redact, "redact", nil, "regular expression to mask (repeatable)")
	cmd.Flags().BoolVar(&opts.stripANSI, "strip-ansi", false, "remove terminal escape sequences")
	return cmd
}
