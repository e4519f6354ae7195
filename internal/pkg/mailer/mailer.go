package mailer

import (
	"context"
	"fmt"
)

// KeySendMail selects the mail service's queue on the shared direct exchange.
const KeySendMail = "keySendMail"

// Notifier is the fire-and-forget half of the RPC gateway.
type Notifier interface {
	Notify(ctx context.Context, exchange, routingKey string, payload any) error
}

type sendMailMessage struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer hands outbound mail to the mail service. Delivery is best-effort;
// a lost welcome mail is recovered through the password-reset flow, not here.
type Mailer interface {
	SendPassword(ctx context.Context, email, password string) error
}

type mailerImpl struct {
	notifier Notifier
	exchange string
}

func NewMailer(notifier Notifier, exchange string) Mailer {
	return &mailerImpl{notifier: notifier, exchange: exchange}
}

// SendPassword implements Mailer.
func (m *mailerImpl) SendPassword(ctx context.Context, email, password string) error {
	msg := sendMailMessage{
		Email:   email,
		Subject: "Employee Registration",
		Body: fmt.Sprintf(
			"You can use your mail (%s) to login. Your password is: %s You can check your tasks in our panel.",
			email, password,
		),
	}
	return m.notifier.Notify(ctx, m.exchange, KeySendMail, msg)
}
