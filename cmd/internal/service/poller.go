package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

type UnreadPoller interface {
	PollUnread(ctx context.Context, patientKey string) ([]*entity.Notification, error)
}

// Poller periodically drains one patient's unread notifications and hands
// them to Deliver.
type Poller struct {
	Relay      UnreadPoller
	PatientKey string
	Interval   time.Duration
	Deliver    func(patientKey string, unread []*entity.Notification)
}

func NewPoller(relay UnreadPoller, patientKey string, interval time.Duration) *Poller {
	return &Poller{
		Relay:      relay,
		PatientKey: patientKey,
		Interval:   interval,
		Deliver:    logDelivery,
	}
}

// Run polls once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Start runs the poller in the background. The returned stop function
// cancels it and waits for the loop to exit; calling it twice is safe.
func (p *Poller) Start(parent context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (p *Poller) poll(ctx context.Context) {
	unread, err := p.Relay.PollUnread(ctx, p.PatientKey)
	if err != nil {
		if ctx.Err() == nil {
			log.Errorf("failed to poll notifications for %s: %v", p.PatientKey, err)
		}
		return
	}
	if len(unread) == 0 || p.Deliver == nil {
		return
	}
	p.Deliver(p.PatientKey, unread)
}

func logDelivery(patientKey string, unread []*entity.Notification) {
	latest := unread[len(unread)-1]
	log.Infof("patient %s has %d new notification(s), latest [%s]: %s", patientKey, len(unread), latest.Type, latest.Message)
}
