// Package notify informs the administrator when a visitor creates an event.
// Delivery is best effort: nothing in this package can fail pin creation.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
)

// EventCreated is the message emitted when an event pin is created.
type EventCreated struct {
	PinID       string     `json:"pin_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Address     *string    `json:"address"`
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewEventCreated builds the message for a freshly created pin.
func NewEventCreated(p domain.Pin) EventCreated {
	return EventCreated{
		PinID:       p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Address:     p.Address,
		Lat:         p.Lat,
		Lng:         p.Lng,
		CreatedAt:   p.CreatedAt,
	}
}

// Notifier delivers EventCreated messages.
type Notifier interface {
	NotifyEventCreated(ctx context.Context, ev EventCreated) error
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

const dateLayout = "Mon, 02 Jan 2006 15:04 MST"

var mailTemplate = template.Must(template.New("event").Parse(`<h2>New Event: {{.Title}}</h2>
<p><strong>Category:</strong> {{.Category}}</p>
<p><strong>Description:</strong> {{.Description}}</p>
<p><strong>Start:</strong> {{.Start}}</p>
<p><strong>End:</strong> {{.End}}</p>
<p><strong>Location:</strong> {{.Location}}</p>
`))

type mailView struct {
	Title       string
	Category    string
	Description string
	Start       string
	End         string
	Location    string
}

// Render formats ev as an email for to, with dates shown in loc.
func Render(ev EventCreated, to string, loc *time.Location) (Message, error) {
	if loc == nil {
		loc = time.UTC
	}

	view := mailView{
		Title:       ev.Title,
		Category:    ev.Category,
		Description: ev.Description,
		Start:       "N/A",
		End:         "Permanent",
		Location:    Location(ev),
	}
	if view.Description == "" {
		view.Description = "N/A"
	}
	if ev.StartDate != nil {
		view.Start = ev.StartDate.In(loc).Format(dateLayout)
	}
	if ev.EndDate != nil {
		view.End = ev.EndDate.In(loc).Format(dateLayout)
	}

	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("failed to render email: %w", err)
	}

	return Message{
		To:      to,
		Subject: "New Event: " + ev.Title,
		HTML:    buf.String(),
	}, nil
}

// Location describes where an event takes place: the address, else the
// coordinates, else "No location".
func Location(ev EventCreated) string {
	switch {
	case ev.Address != nil && *ev.Address != "":
		return *ev.Address
	case ev.Lat != nil && ev.Lng != nil:
		return strconv.FormatFloat(*ev.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(*ev.Lng, 'f', -1, 64)
	default:
		return "No location"
	}
}
