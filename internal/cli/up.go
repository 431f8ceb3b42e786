package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/logstream"
	"github.com/rickgorman/testbed/internal/scenario"
	"github.com/rickgorman/testbed/internal/ui"
	"github.com/rickgorman/testbed/pkg/logger"
)

type upOptions struct {
	follow    bool
	redact    []string
	stripANSI bool
}

func newUpCommand(root *rootOptions) *cobra.Command {
	opts := &upOptions{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create and start the scenario's containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(opts.redact, opts.stripANSI)
			if err != nil {
				return err
			}

			f, s, err := root.load()
			if err != nil {
				return err
			}

			rt, err := container.NewClient(logger.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Docker: %w", err)
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.Header(f.Name)
			adopted, err := s.Adopt(ctx, rt)
			if err != nil {
				ui.Fail("%v", err)
				ui.Footer()
				return err
			}
			if adopted > 0 {
				ui.DimMsg("%d container(s) already running", adopted)
			}
			if err := s.Up(ctx, rt); err != nil {
				ui.Fail("%v", err)
				ui.Info("Run %s to clean up", ui.Bold("testbed down"))
				ui.Footer()
				return err
			}
			report(s)
			ui.Footer()

			if !opts.follow {
				return nil
			}
			return followAll(ctx, s, rt, filter, &lineWriter{w: cmd.OutOrStdout()})
		},
	}

	cmd.Flags().BoolVar(&opts.follow, "follow", false, "follow container output until interrupted")
	cmd.Flags().StringArrayVar(&opts.redact, "redact", nil, "regular expression to mask in followed output (repeatable)")
	cmd.Flags().BoolVar(&opts.stripANSI, "strip-ansi", false, "remove terminal escape sequences from followed output")
	return cmd
}

func report(s *scenario.Scenario) {
	for _, c := range s.Containers() {
		// Adopted containers keep the ports of the run that started them.
		if c.Config == nil {
			ui.Info("%s already running as %s", ui.Bold(c.Spec.Name), c.RuntimeName)
			continue
		}
		ui.Success("%s started as %s", ui.Bold(c.Spec.Name), c.RuntimeName)
		for _, b := range c.Config.PortBindings() {
			if !b.HostBindingRequested {
				continue
			}
			ui.Binding(c.Spec.Name, fmt.Sprintf("%d/%s", b.ContainerPort, b.Protocol), fmt.Sprintf("0.0.0.0:%d", b.HostPort))
		}
	}
}

// followAll prints every container's output until all streams end or ctx
// is cancelled.
func followAll(ctx context.Context, s *scenario.Scenario, rt scenario.Runtime, filter logstream.Filter, out *lineWriter) error {
	var wg sync.WaitGroup
	var streams []*logstream.Stream
	closeAll := func() {
		for _, stream := range streams {
			_ = stream.Close()
		}
		wg.Wait()
	}

	for _, c := range s.Containers() {
		stream, err := s.Logs(ctx, rt, c.Spec.Name, container.LogOptions{},
			logstream.WithPrint(false),
			logstream.WithFilter(filter),
		)
		if err != nil {
			closeAll()
			return err
		}
		streams = append(streams, stream)

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := follow(stream, out, name, ""); err != nil {
				ui.Warn("%s: %v", name, err)
			}
		}(c.Spec.Name)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	closeAll()
	return nil
}
