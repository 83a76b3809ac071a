package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-backend/config"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(msg Message) error
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(msg Message) error {
	return m.SendFunc(msg)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, 1, &mockSender{})

	// Dispatch a job
	assert.True(t, wp.Dispatch(Message{Subject: "first"}))
	assert.False(t, wp.Dispatch(Message{Subject: "second"}), "queue of one is full")

	// Check if the job is in the channel
	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "first", job.Subject)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []Message
		wg   sync.WaitGroup
	)
	sender := &mockSender{
		SendFunc: func(msg Message) error {
			defer wg.Done()
			if msg.Subject == "boom" {
				return errors.New("relay down")
			}
			mu.Lock()
			sent = append(sent, msg)
			mu.Unlock()
			return nil
		},
	}

	wp := NewWorkerPool(2, 8, sender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wg.Add(3)
	wp.Dispatch(Message{To: []string{"a@example.com"}, Subject: "one"})
	wp.Dispatch(Message{To: []string{"b@example.com"}, Subject: "boom"})
	wp.Dispatch(Message{To: []string{"c@example.com"}, Subject: "two"})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	subjects := []string{}
	for _, m := range sent {
		subjects = append(subjects, m.Subject)
	}
	assert.ElementsMatch(t, []string{"one", "two"}, subjects)
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("tech@example.com", TicketSubject("Spindle noise"), KindTicket, TicketData{
		Title:       "Spindle noise",
		MachineName: "CNC-01",
		Critical:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tech@example.com"}, msg.To)
	assert.Equal(t, "New Maintenance Ticket Notification : Spindle noise", msg.Subject)
	assert.Contains(t, msg.HTML, "You have been assigned a maintenance ticket")
	assert.Contains(t, msg.HTML, "CNC-01")
	assert.Contains(t, msg.HTML, "Critical")

	_, err = NewMessage("", "x", KindTicket, TicketData{})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	html, err := Render(KindChecklist, ChecklistData{
		ChecklistName: "Weekly lubrication",
		Items: []ChecklistItemData{
			{Description: "Grease rails", Completed: false},
			{Description: "Check oil <level>", Completed: true},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Grease rails</strong> - Not Completed")
	assert.Contains(t, html, "Check oil &lt;level&gt;")

	html, err = Render(KindPassword, "123456")
	require.NoError(t, err)
	assert.Contains(t, html, "123456")

	html, err = Render("unknown", nil)
	require.NoError(t, err)
	assert.Contains(t, html, "You have a new notification")
}

func TestSMTPSender_NotConfigured(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{})
	assert.ErrorIs(t, s.Send(Message{To: []string{"a@example.com"}}), ErrNotConfigured)

	s.Update(config.SMTPConfig{Server: "127.0.0.1", Port: 1})
	err := s.Send(Message{To: []string{"a@example.com"}, Subject: "x"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}
