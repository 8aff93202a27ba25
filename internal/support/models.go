package support

import (
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// TicketStatus is the support ticket lifecycle. Closed tickets can be
// reopened by an admin.
type TicketStatus string

const (
	StatusOpen   TicketStatus = "open"
	StatusClosed TicketStatus = "closed"
)

// ParseTicketStatus validates a status string.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case StatusOpen, StatusClosed:
		return TicketStatus(s), true
	default:
		return "", false
	}
}

// Ticket is one support conversation. Messages live on the shared thread
// primitive keyed by the ticket id.
type Ticket struct {
	ID        domain.TicketID
	AccountID domain.AccountID
	Subject   string
	Status    TicketStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRequest is the payload for opening a ticket.
type CreateRequest struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (r *CreateRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Text = strings.TrimSpace(r.Text)
}

func (r *CreateRequest) Validate() error {
	if r.Subject == "" {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if len(r.Subject) > 200 {
		return dErrors.New(dErrors.CodeValidation, "subject must be at most 200 characters")
	}
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	if len(r.Text) > 4000 {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 4000 characters")
	}
	return nil
}

// ReplyRequest is the payload for a support reply.
type ReplyRequest struct {
	Text string `json:"text"`
}

func (r *ReplyRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

func (r *ReplyRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	if len(r.Text) > 4000 {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 4000 characters")
	}
	return nil
}

// StatusRequest is the PATCH payload for opening or closing a ticket.
type StatusRequest struct {
	Status string `json:"status"`
}

func (r *StatusRequest) Validate() (TicketStatus, error) {
	status, ok := ParseTicketStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "status must be open or closed")
	}
	return status, nil
}
