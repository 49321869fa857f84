package room

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
)

// Reaper runs the periodic idle-room sweep in the background. It never
// blocks in-flight joins or leaves; the sweep takes the same per-room locks
// as everything else.
type Reaper struct {
	coordinator *Coordinator
	logger      *slog.Logger
	interval    time.Duration
}

func NewReaper(coordinator *Coordinator, logger *slog.Logger) *Reaper {
	interval := coordinator.cfg.ReapInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Reaper{
		coordinator: coordinator,
		logger:      logger,
		interval:    interval,
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.coordinator.Sweep(time.Now())
		}
	}
}

type reaper_Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Coordinator *Coordinator
	Logger      *slog.Logger
}

func runReaper(params reaper_Params) {
	reaper := NewReaper(params.Coordinator, params.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				reaper.Run(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

var ReaperModule = fx.Module("reaper", fx.Invoke(runReaper))
