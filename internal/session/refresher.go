package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultRefreshTimeout = 15 * time.Second

// Refresher re-validates the session on a cron schedule, so a token revoked
// on the backend ends the local session.
type Refresher struct {
	m       *Manager
	cron    *cron.Cron
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewRefresher(m *Manager, schedule string, log *zap.SugaredLogger) (*Refresher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Refresher{
		m:       m,
		cron:    cron.New(),
		log:     log,
		timeout: DefaultRefreshTimeout,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.Tick(context.Background()) }); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Tick runs one refresh. Without a session it does nothing.
func (r *Refresher) Tick(ctx context.Context) {
	if !r.m.IsAuthenticated() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.m.RefreshUser(ctx); err != nil {
		r.log.Warnf("session refresh: %v", err)
		return
	}
	r.log.Debugf("session refresh: ok")
}
