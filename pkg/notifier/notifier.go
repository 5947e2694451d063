package notifier

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pagemark/pagemark/pkg/config"
	"github.com/pagemark/pagemark/pkg/events"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

// Notifier drains the events outbox and delivers each event to the goal
// tracker. Delivery is at-least-once; the exactly-once guarantee lives in the
// outbox insert, which commits with the transition that produced it.
type Notifier struct {
	config *config.Config
	log    logger.Logger

	eventService *events.Service
	client       *http.Client

	fetchInterval  time.Duration
	queue          chan *models.Event
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB) *Notifier {
	return &Notifier{
		config: cfg,
		log:    logger.New(),

		eventService: events.NewService(db),
		client:       &http.Client{Timeout: 10 * time.Second},

		fetchInterval:  5 * time.Second,
		queue:          make(chan *models.Event, cfg.NotifierProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.NotifierProcesses),
	}
}

func (n *Notifier) Start() {
	go n.fetchEvents()
	for i := 0; i < n.config.NotifierProcesses; i++ {
		go n.processEvents()
	}
}

func (n *Notifier) fetchEvents() {
	timer := time.NewTimer(n.fetchInterval)

	for {
		select {
		case <-n.shutdown:
			// We're shutting down, so stop adding more events to the queue.
			n.doneFetching <- struct{}{}
			return
		case <-timer.C:
			evts, err := n.eventService.ListEvents(context.Background(), events.ListEventsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.EventStatusPending},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				n.log.Err(err).Error("list events error")
				timer.Reset(n.fetchInterval)
				continue
			}
			for _, event := range evts {
				n.queue <- event
			}
			timer.Reset(n.fetchInterval)
		}
	}
}

func (n *Notifier) processEvents() {
	for {
		select {
		case <-n.shutdown:
			n.doneProcessing <- struct{}{}
			return
		case event := <-n.queue:
			id, err := uuid.NewRandom()
			if err != nil {
				n.log.Err(err).Error("new uuid error")
				continue
			}
			log := n.log.ID(id.String()).Root(logger.Data{"event_id": event.ID, "type": event.Type, "process_id": processID})
			ctx := log.WithContext(context.Background())

			// Claim the event so other processes skip it.
			event.ProcessID = &processID
			event.Attempts++

			err = n.eventService.UpdateEvent(ctx, event, events.UpdateEventOptions{
				Columns: []string{"process_id", "attempts"},
			})
			if err != nil {
				log.Err(err).Error("claim event error")
				continue
			}

			err = n.deliver(ctx, event)
			if err != nil {
				log.Err(err).Error("deliver error")
				n.release(ctx, log, event)
				continue
			}

			event.Status = models.EventStatusDelivered
			err = n.eventService.UpdateEvent(ctx, event, events.UpdateEventOptions{
				Columns: []string{"status"},
			})
			if err != nil {
				log.Err(err).Error("update event error")
				continue
			}
		}
	}
}

// release puts a failed event back for retry, or marks it failed once its
// attempts run out.
func (n *Notifier) release(ctx context.Context, log logger.Logger, event *models.Event) {
	columns := []string{"process_id"}
	event.ProcessID = nil
	if event.Attempts >= events.MaxAttempts {
		event.Status = models.EventStatusFailed
		columns = append(columns, "status")
	}

	err := n.eventService.UpdateEvent(ctx, event, events.UpdateEventOptions{
		Columns: columns,
	})
	if err != nil {
		log.Err(err).Error("release event error")
	}
}

func (n *Notifier) deliver(ctx context.Context, event *models.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.GoalTrackerURL, strings.NewReader(event.Data))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("goal tracker returned %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) Shutdown() {
	close(n.shutdown)

	<-n.doneFetching
	for i := 0; i < n.config.NotifierProcesses; i++ {
		<-n.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
