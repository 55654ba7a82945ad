package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

func ptr[T any](v T) *T { return &v }

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type notifierFunc func(ctx context.Context, ev EventCreated) error

func (f notifierFunc) NotifyEventCreated(ctx context.Context, ev EventCreated) error {
	return f(ctx, ev)
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name string
		ev   EventCreated
		want string
	}{
		{"address wins", EventCreated{Address: ptr("1 Main St"), Lat: ptr(1.5), Lng: ptr(2.0)}, "1 Main St"},
		{"coordinates", EventCreated{Lat: ptr(45.5), Lng: ptr(-73.25)}, "45.5, -73.25"},
		{"zero coordinates", EventCreated{Lat: ptr(0.0), Lng: ptr(0.0)}, "0, 0"},
		{"empty address falls back", EventCreated{Address: ptr(""), Lat: ptr(1.0), Lng: ptr(2.0)}, "1, 2"},
		{"nothing", EventCreated{}, "No location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Location(tt.ev); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	start := time.Date(2024, 7, 4, 18, 0, 0, 0, time.UTC)

	t.Run("permanent event without description", func(t *testing.T) {
		msg, err := Render(EventCreated{Title: "Market", Category: "Food", StartDate: &start}, "admin@example.com", nil)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if msg.Subject != "New Event: Market" {
			t.Errorf("Subject = %q", msg.Subject)
		}
		if msg.To != "admin@example.com" {
			t.Errorf("To = %q", msg.To)
		}
		for _, want := range []string{"Food", "N/A", "Permanent", "No location", "Thu, 04 Jul 2024 18:00 UTC"} {
			if !strings.Contains(msg.HTML, want) {
				t.Errorf("HTML missing %q:\n%s", want, msg.HTML)
			}
		}
	})

	t.Run("escapes user input", func(t *testing.T) {
		msg, err := Render(EventCreated{Title: "x", Description: "<script>alert(1)</script>"}, "a@b", nil)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if strings.Contains(msg.HTML, "<script>") {
			t.Errorf("HTML not escaped:\n%s", msg.HTML)
		}
	})

	t.Run("end date in location", func(t *testing.T) {
		loc := time.FixedZone("EST", -5*3600)
		end := start.Add(2 * time.Hour)
		msg, err := Render(EventCreated{Title: "x", StartDate: &start, EndDate: &end}, "a@b", loc)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(msg.HTML, "Thu, 04 Jul 2024 15:00 EST") {
			t.Errorf("HTML missing local end date:\n%s", msg.HTML)
		}
	})
}

func TestNewEventCreated(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := domain.Pin{ID: "p1", Title: "T", Category: "C", StartDate: &start, Lat: ptr(1.0), Lng: ptr(2.0)}

	ev := NewEventCreated(p)
	if ev.PinID != "p1" || ev.Title != "T" || ev.Category != "C" || ev.StartDate != &start {
		t.Errorf("NewEventCreated() = %+v", ev)
	}
}

func TestMailNotifier(t *testing.T) {
	m := &recordingMailer{}
	n := &MailNotifier{Mailer: m, To: "admin@example.com"}

	if err := n.NotifyEventCreated(context.Background(), EventCreated{PinID: "p1", Title: "Fair"}); err != nil {
		t.Fatalf("NotifyEventCreated() error = %v", err)
	}
	if len(m.sent) != 1 || m.sent[0].Subject != "New Event: Fair" {
		t.Errorf("sent = %+v", m.sent)
	}
}

func TestDispatcher(t *testing.T) {
	t.Run("delivers in background", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(notifierFunc(func(ctx context.Context, ev EventCreated) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline on the notification context")
			}
			calls.Add(1)
			return nil
		}), logger.NewNop(), time.Second)

		d.Dispatch(EventCreated{PinID: "a"})
		d.Dispatch(EventCreated{PinID: "b"})

		if err := d.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", calls.Load())
		}
	})

	t.Run("failures and panics are swallowed", func(t *testing.T) {
		d := NewDispatcher(notifierFunc(func(_ context.Context, ev EventCreated) error {
			if ev.PinID == "panic" {
				panic("boom")
			}
			return errors.New("smtp down")
		}), logger.NewNop(), time.Second)

		d.Dispatch(EventCreated{PinID: "err"})
		d.Dispatch(EventCreated{PinID: "panic"})

		if err := d.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	t.Run("dropped after close", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(notifierFunc(func(context.Context, EventCreated) error {
			calls.Add(1)
			return nil
		}), logger.NewNop(), time.Second)

		if err := d.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		d.Dispatch(EventCreated{PinID: "late"})
		time.Sleep(10 * time.Millisecond)
		if calls.Load() != 0 {
			t.Errorf("calls = %d, want 0", calls.Load())
		}
	})

	t.Run("close honors context", func(t *testing.T) {
		release := make(chan struct{})
		d := NewDispatcher(notifierFunc(func(context.Context, EventCreated) error {
			<-release
			return nil
		}), logger.NewNop(), time.Minute)
		defer close(release)

		d.Dispatch(EventCreated{PinID: "slow"})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Close() = %v, want DeadlineExceeded", err)
		}
	})
}

func TestSMTPMailer(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "noreply@example.com")

	var gotAddr string
	var gotTo []string
	var gotBody string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if a == nil {
			t.Error("expected PLAIN auth")
		}
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "admin@example.com", Subject: "New Event: a\r\nBcc: x", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "admin@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if strings.Contains(gotBody, "\r\nBcc:") {
		t.Errorf("header injection not stripped:\n%s", gotBody)
	}
	if !strings.Contains(gotBody, "Content-Type: text/html") || !strings.HasSuffix(gotBody, "<p>hi</p>") {
		t.Errorf("unexpected body:\n%s", gotBody)
	}

	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Error("Send() without recipient should fail")
	}
}

func TestSMTPMailerContext(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 25, "", "", "noreply@example.com")
	block := make(chan struct{})
	defer close(block)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Send(ctx, Message{To: "a@b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() = %v, want DeadlineExceeded", err)
	}
}

func TestPublishing(t *testing.T) {
	p := NewAMQPPublisher("amqp://localhost", "")
	if p.queue != DefaultQueue {
		t.Errorf("queue = %q, want %q", p.queue, DefaultQueue)
	}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	msg, err := p.publishing(EventCreated{PinID: "p1", Title: "Fair"})
	if err != nil {
		t.Fatalf("publishing() error = %v", err)
	}
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" || msg.MessageId != "p1" {
		t.Errorf("publishing = %+v", msg)
	}
	if !msg.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, now)
	}

	var ev EventCreated
	if err := json.Unmarshal(msg.Body, &ev); err != nil || ev.Title != "Fair" {
		t.Errorf("body = %s, err = %v", msg.Body, err)
	}
}

func TestConsumerHandle(t *testing.T) {
	m := &recordingMailer{}
	c := NewConsumer("amqp://localhost", "", &MailNotifier{Mailer: m, To: "admin@example.com"}, logger.NewNop(), time.Second)

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"pin_id":"p1","title":"Fair","category":"Fun"}`, false},
		{"not json", `nope`, true},
		{"missing id", `{"title":"Fair"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.handle(context.Background(), []byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("handle() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if len(m.sent) != 1 || m.sent[0].Subject != "New Event: Fair" {
		t.Errorf("sent = %+v", m.sent)
	}
}
