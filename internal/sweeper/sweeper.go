// Package sweeper runs the periodic maintenance passes: late tickets,
// machine and checklist statuses, and reminder emails.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"maintenance-backend/config"
	"maintenance-backend/internal/model"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/store"
)

const dateLayout = "2006-01-02"

// Dispatcher queues outgoing mail.
type Dispatcher interface {
	Dispatch(msg notification.Message) bool
}

// Summary reports what one sweep changed.
type Summary struct {
	LateTickets       int64
	MachinesChanged   int
	ChecklistsChanged int
	Reminders         int
}

// Service orchestrates the sweeps. It uses a Store for persistence.
type Service struct {
	cfg    config.SweeperConfig
	store  store.Store
	mailer Dispatcher
	// sent remembers reminders already queued so each is mailed once.
	sent *cache.Cache
}

// NewService creates a sweeper. mailer may be nil to disable reminders.
func NewService(cfg config.SweeperConfig, st store.Store, mailer Dispatcher) *Service {
	window := time.Duration(cfg.ReminderDays+1) * 24 * time.Hour
	return &Service{
		cfg:    cfg,
		store:  st,
		mailer: mailer,
		sent:   cache.New(window, time.Hour),
	}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting sweeper service...")

	s.SweepOnce(ctx, time.Now())

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx, time.Now())
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce performs a single pass. Each step logs its own failure and the
// remaining steps still run.
func (s *Service) SweepOnce(ctx context.Context, now time.Time) Summary {
	var sum Summary
	var err error

	if sum.LateTickets, err = s.store.MarkOverdueTickets(ctx, now); err != nil {
		log.Printf("Error marking overdue tickets: %v", err)
	}
	if sum.MachinesChanged, err = s.store.RefreshMachineStatuses(ctx); err != nil {
		log.Printf("Error refreshing machine statuses: %v", err)
	}
	if sum.ChecklistsChanged, err = s.store.RefreshChecklistStatuses(ctx, now); err != nil {
		log.Printf("Error refreshing checklist statuses: %v", err)
	}

	if s.mailer != nil {
		n, err := s.checklistReminders(ctx, now)
		if err != nil {
			log.Printf("Error sending checklist reminders: %v", err)
		}
		sum.Reminders += n
		n, err = s.sparePartReminders(ctx)
		if err != nil {
			log.Printf("Error sending spare part reminders: %v", err)
		}
		sum.Reminders += n
	}

	if sum != (Summary{}) {
		log.Printf("Sweep finished: %d tickets late, %d machines and %d checklists changed, %d reminders queued",
			sum.LateTickets, sum.MachinesChanged, sum.ChecklistsChanged, sum.Reminders)
	}
	return sum
}

// checklistReminders mails the machine owner about checklists due within the reminder window.
func (s *Service) checklistReminders(ctx context.Context, now time.Time) (int, error) {
	until := now.AddDate(0, 0, s.cfg.ReminderDays)
	lists, err := s.store.UpcomingChecklists(ctx, until)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, cl := range lists {
		if cl.Machine == nil || cl.Machine.User == nil || cl.Machine.User.EmailAddress == "" || cl.NextPlannedDate == nil {
			continue
		}
		key := fmt.Sprintf("checklist:%d:%s", cl.ID, cl.NextPlannedDate.Format(dateLayout))
		msg, err := notification.NewMessage(cl.Machine.User.EmailAddress, notification.ChecklistSubject(cl.Title),
			notification.KindChecklist, ChecklistData(cl))
		if err != nil {
			return queued, err
		}
		if s.queueOnce(key, msg) {
			queued++
		}
	}
	return queued, nil
}

// sparePartReminders mails the machine owner when a part reaches its reorder level.
func (s *Service) sparePartReminders(ctx context.Context) (int, error) {
	parts, err := s.store.ListSpareParts(ctx, nil)
	if err != nil {
		return 0, err
	}
	var machines map[int64]model.Machine
	queued := 0
	for _, p := range parts {
		if !p.NeedsReorder() {
			continue
		}
		if machines == nil {
			if machines, err = s.machinesByID(ctx); err != nil {
				return queued, err
			}
		}
		m, ok := machines[p.MachineID]
		if !ok || m.User == nil || m.User.EmailAddress == "" {
			continue
		}
		key := fmt.Sprintf("sparepart:%d:%d", p.ID, p.Quantity)
		msg, err := notification.NewMessage(m.User.EmailAddress, notification.SparePartSubject(p.Name),
			notification.KindSparePart, notification.SparePartData{
				Name:         p.Name,
				PartNumber:   p.PartNumber,
				MachineName:  m.Name,
				Quantity:     p.Quantity,
				ReorderLevel: p.ReorderLevel,
				Supplier:     p.Supplier,
				Location:     p.Location,
			})
		if err != nil {
			return queued, err
		}
		if s.queueOnce(key, msg) {
			queued++
		}
	}
	return queued, nil
}

func (s *Service) machinesByID(ctx context.Context) (map[int64]model.Machine, error) {
	machines, err := s.store.ListMachines(ctx, store.MachineFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Machine, len(machines))
	for _, m := range machines {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Service) queueOnce(key string, msg notification.Message) bool {
	if _, seen := s.sent.Get(key); seen {
		return false
	}
	if !s.mailer.Dispatch(msg) {
		return false
	}
	s.sent.SetDefault(key, struct{}{})
	return true
}

// ChecklistData builds the reminder template data for a checklist.
func ChecklistData(cl model.Checklist) notification.ChecklistData {
	data := notification.ChecklistData{
		ChecklistName:      cl.Title,
		LastCompletionDate: "never",
	}
	if cl.Machine != nil {
		data.MachineName = cl.Machine.Name
	}
	if cl.LastPerformedDate != nil {
		data.LastCompletionDate = cl.LastPerformedDate.Format(dateLayout)
	}
	if cl.NextPlannedDate != nil {
		data.NextPlanned = cl.NextPlannedDate.Format(dateLayout)
	}
	for _, it := range cl.Items {
		data.Items = append(data.Items, notification.ChecklistItemData{Description: it.Description, Completed: it.Completed})
	}
	return data
}
