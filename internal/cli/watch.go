package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/metrics"
	"aqve/internal/query"
	"aqve/internal/repository"
	"aqve/internal/service"
	"aqve/internal/session"
)

const defaultPollInterval = time.Minute

func (a *App) watchCommand() *cobra.Command {
	var (
		schedule    string
		poll        time.Duration
		metricsAddr string
	)
	cmd := requireAuth(&cobra.Command{
		Use:   "watch",
		Short: "Keep the session alive and print new notifications",
		Long: `watch re-validates the session on a schedule, follows logins and logouts
made by other aqve processes and prints notifications as they arrive. It
stops when the session ends or on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schedule == "" {
				schedule = a.cfg.RefreshSchedule
			}
			return a.watch(cmd.Context(), schedule, poll, metricsAddr)
		},
	})
	cmd.Flags().StringVar(&schedule, "refresh", "", "cron schedule of session checks (default from config)")
	cmd.Flags().DurationVar(&poll, "poll", defaultPollInterval, "how often to check for notifications")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve client metrics at http://ADDR/metrics")
	return cmd
}

func (a *App) watch(ctx context.Context, schedule string, poll time.Duration, metricsAddr string) error {
	if poll <= 0 {
		return errors.New("--poll must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	refresher, err := session.NewRefresher(a.session, schedule, a.log.Named("refresh"))
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		addr, stop, err := a.serveMetrics(metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
		a.display.status("metrics on http://%s/metrics", addr)
	}

	ended := make(chan struct{})
	var once sync.Once
	unsubscribe := a.session.Subscribe(func(s session.Snapshot) {
		switch s.Status {
		case session.StatusAuthenticated:
			if s.User != nil {
				a.display.status("session: signed in as %s", s.User.Email)
			}
		case session.StatusUnauthenticated:
			a.display.status("session: signed out")
			once.Do(func() { close(ended) })
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	if w, ok := a.tokens.(repository.TokenWatcher); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Watch(ctx, func() {
				if err := a.session.Resync(ctx); err != nil && ctx.Err() == nil {
					a.log.Warnf("resync session: %v", err)
				}
			})
			if err != nil {
				a.log.Warnf("watch token store: %v", err)
			}
		}()
	}

	feed := a.svc.Notifications.List()
	defer feed.Close()
	seen := newInbox(a)
	unsubInbox := feed.Subscribe(seen.update)
	defer unsubInbox()
	feed.Activate(service.NoKey{})

	refresher.Start()
	defer refresher.Stop()
	a.display.status("watching, press Ctrl+C to stop")

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cancel()
			wg.Wait()
			return nil
		case <-ended:
			cancel()
			wg.Wait()
			return nil
		case <-ticker.C:
			feed.Refetch()
		}
	}
}

// serveMetrics exposes the client registry until stop is called.
func (a *App) serveMetrics(addr string) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler(a.registry)).Methods(http.MethodGet)
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warnf("metrics server: %v", err)
		}
	}()
	return ln.Addr(), func() { _ = srv.Close() }, nil
}

// inbox prints each unread notification once. The first load only records
// what is already there.
type inbox struct {
	a      *App
	mu     sync.Mutex
	primed bool
	seen   map[string]bool
}

func newInbox(a *App) *inbox {
	return &inbox{a: a, seen: map[string]bool{}}
}

func (b *inbox) update(st query.State[[]entities.Notification]) {
	if !st.HasData {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(st.Data) - 1; i >= 0; i-- {
		n := st.Data[i]
		if b.seen[n.ID] {
			continue
		}
		b.seen[n.ID] = true
		if b.primed && !n.IsRead {
			b.a.display.Notify(context.Background(), service.Event{Level: service.LevelSuccess, Message: n.Title + ": " + n.Message})
		}
	}
	b.primed = true
}
