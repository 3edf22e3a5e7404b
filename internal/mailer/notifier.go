package mailer

import (
	"context"
	"errors"
	"fmt"

	"fest-ticketing/internal/model"
)

const ticketIssuedTemplate = "ticket_issued"

// ErrUndeliverable marks messages that will never succeed on retry.
var ErrUndeliverable = errors.New("undeliverable notification")

// TicketNotifier sends the confirmation email for an issued ticket.
type TicketNotifier interface {
	NotifyTicketIssued(ctx context.Context, msg *model.TicketIssued) error
}

type EmailTicketNotifier struct {
	mailer Mailer
}

func NewTicketNotifier(m Mailer) TicketNotifier {
	return &EmailTicketNotifier{mailer: m}
}

func (n *EmailTicketNotifier) NotifyTicketIssued(ctx context.Context, msg *model.TicketIssued) error {
	if msg == nil || msg.UserEmail == "" {
		return fmt.Errorf("%w: missing recipient", ErrUndeliverable)
	}
	rendered, err := Render(ticketIssuedTemplate, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	return n.mailer.Send(ctx, msg.UserEmail, rendered.Subject, rendered.HTML, rendered.Text)
}
