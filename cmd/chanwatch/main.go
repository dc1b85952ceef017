// Command chanwatch tails filesystem changes under the configured paths and
// prints them as structured log lines, with a periodic summary of activity.
//
// Configuration comes from the environment (a .env file is honored when
// present); see filewatcher.Config for the variables.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/conduit/core/channel"
	"github.com/dmitrymomot/conduit/core/config"
	"github.com/dmitrymomot/conduit/core/logger"
	"github.com/dmitrymomot/conduit/core/timer"
	"github.com/dmitrymomot/conduit/pkg/filewatcher"
)

const statsInterval = 30 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		log.Error("chanwatch failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	var cfg filewatcher.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := filewatcher.New(cfg, filewatcher.WithLogger(log))
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Fan the single watcher stream out so every consumer sees every event.
	events := channel.NewBroadcast[filewatcher.Event]("chanwatch",
		channel.WithBroadcastLogger(log))
	pipe := channel.NewPipe(channel.Receiver[filewatcher.Event](watcher), events.NewSender())
	pipe.Start()
	defer pipe.Stop()

	printer, err := events.NewReceiver(channel.WithReceiverName("printer"))
	if err != nil {
		return err
	}
	counter, err := events.NewReceiver(channel.WithReceiverName("counter"))
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return printEvents(ctx, log, printer)
	})
	group.Go(func() error {
		return reportStats(ctx, log, counter)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printEvents logs every change as it arrives.
func printEvents(ctx context.Context, log *slog.Logger, events channel.Receiver[filewatcher.Event]) error {
	defer events.Close()
	for {
		event, err := events.Receive(ctx)
		if err != nil {
			if errors.Is(err, channel.ErrReceiverStopped) {
				return nil
			}
			return err
		}
		log.Info("file changed",
			logger.Path(event.Path),
			slog.String("type", event.Type.String()))
	}
}

// reportStats counts changes and logs a summary every statsInterval,
// multiplexing the event stream with the reporting timer.
func reportStats(ctx context.Context, log *slog.Logger, events channel.Receiver[filewatcher.Event]) error {
	defer events.Close()

	ticker, err := timer.New(statsInterval, timer.SkipMissedAndResync{})
	if err != nil {
		return err
	}
	defer ticker.Stop()

	counts := make(map[filewatcher.EventType]int)
	selector := channel.Select(events, ticker)
	for selected, ok := selector.Next(ctx); ok; selected, ok = selector.Next(ctx) {
		switch {
		case selected.From(events):
			if selected.WasStopped() {
				return selector.Err()
			}
			if event, ok := channel.MessageFrom(selected, events); ok {
				counts[event.Type]++
			}
		case selected.From(ticker):
			log.Info("activity summary",
				slog.Int("created", counts[filewatcher.Created]),
				slog.Int("modified", counts[filewatcher.Modified]),
				slog.Int("deleted", counts[filewatcher.Deleted]))
			clear(counts)
		}
	}
	return selector.Err()
}
