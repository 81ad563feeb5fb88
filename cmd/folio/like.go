package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/devfolio-dev/folio/internal/config"
	"github.com/devfolio-dev/folio/pkg/features/optimistic"
	"github.com/devfolio-dev/folio/pkg/likeapi"
	"github.com/devfolio-dev/folio/pkg/loop"
	"github.com/devfolio-dev/folio/pkg/render"
	"github.com/devfolio-dev/folio/pkg/toast"
)

func likeCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		initial  bool
		clicks   int
		gap      time.Duration
		teardown bool
		baseURL  string
		html     bool
	)

	cmd := &cobra.Command{
		Use:   "like <id>",
		Short: "Click a like toggle against the API",
		Long: `Click the like toggle for item <id> and report what the server confirmed.

Clicks inside one quiet period (toggle.interval) collapse into at most one
request. With --teardown the toggle is torn down right after the last click,
sending any unsaved value as a fire-and-forget beacon.

Examples:
  folio like 12
  folio like 12 --clicks=3 --gap=100ms
  folio like 12 --clicks=1 --teardown
  folio like 12 --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.Toggle.BaseURL = baseURL
			}
			return runLike(cfg, args[0], initial, clicks, gap, teardown, html)
		},
	}

	cmd.Flags().BoolVar(&initial, "liked", false, "Initial confirmed value")
	cmd.Flags().IntVarP(&clicks, "clicks", "n", 1, "Number of clicks")
	cmd.Flags().DurationVar(&gap, "gap", 100*time.Millisecond, "Delay between clicks")
	cmd.Flags().BoolVar(&teardown, "teardown", false, "Tear down right after the last click")
	cmd.Flags().StringVar(&baseURL, "base", "", "Resource URL (default toggle.baseURL)")
	cmd.Flags().BoolVar(&html, "html", false, "Print the rendered button on every repaint")

	return cmd
}

func runLike(cfg *config.Config, id string, initial bool, clicks int, gap time.Duration, teardown, html bool) error {
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := loop.New(loop.WithLogger(logger))
	go l.Run(ctx)
	defer l.Close()

	client := likeapi.NewClient(cfg.Toggle.BaseURL, id, likeapi.WithLogger(logger))
	beacon := likeapi.NewBeacon(client, cfg.BeaconTimeout())

	toggle := optimistic.New(initial, client,
		optimistic.WithName(id),
		optimistic.WithInterval(cfg.Interval()),
		optimistic.WithDispatcher(l),
		optimistic.WithBeacon(beacon),
		optimistic.WithContext(ctx),
		optimistic.WithLogger(logger),
		optimistic.WithNotifier(toast.NotifierFunc(func(n toast.Notice) {
			warn("%s", n.Message)
		})),
		optimistic.WithRenderer(func(displayed bool) {
			if html {
				info("%s", render.RenderToString(optimistic.Button("Like", displayed)))
				return
			}
			info("displayed liked=%v", displayed)
		}),
	)

	for i := 0; i < clicks; i++ {
		if i > 0 {
			time.Sleep(gap)
		}
		if err := l.Call(ctx, toggle.Click); err != nil {
			return err
		}
	}

	if teardown {
		if err := l.Call(ctx, toggle.Teardown); err != nil {
			return err
		}
		beacon.Wait()
		success("torn down, displayed liked=%v", toggle.Displayed())
		return nil
	}

	st, err := settle(ctx, l, toggle, cfg.Interval()+likeapi.DefaultTimeout)
	if err != nil {
		return err
	}
	success("confirmed liked=%v", st.Confirmed)
	return nil
}

// settle waits until the toggle has nothing scheduled or in flight. State is
// read on the loop and must hold for two ticks, so a timer that expired but
// has not yet dispatched its send is not mistaken for a settled toggle.
func settle(ctx context.Context, l *loop.Loop, t *optimistic.Toggle, timeout time.Duration) (optimistic.State, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	var st optimistic.State
	quiet := 0
	for {
		if err := l.Call(ctx, func() { st = t.State() }); err != nil {
			return st, fmt.Errorf("toggle did not settle: %w", err)
		}
		if !st.Pending && st.InFlight == nil {
			quiet++
			if quiet == 2 {
				return st, nil
			}
		} else {
			quiet = 0
		}
		select {
		case <-ctx.Done():
			return st, fmt.Errorf("toggle did not settle: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
