// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package mail implements outbound transactional email delivery over SMTP.

It is an Infrastructure adapter: the auth domain consumes it through the
[auth.EmailSender] interface and never sees SMTP details. Delivery failures
are reported to the caller; the service decides whether they are fatal.
*/
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// sendTimeout note: the go-mail client dials per message; DialAndSendWithContext
// honours the caller's context deadline, so no extra timer is kept here.

// activationSubject is the subject line of the account activation email.
const activationSubject = "Activate your account"

// activationBody is the plain-text template for the activation email.
// {{name}} and {{code}} are substituted before sending.
const activationBody = `Hello {{name}},

Thank you for registering with Learnio. Please use the following code to
activate your account:

    {{code}}

This code expires in 10 minutes. If you did not create an account, you can
safely ignore this email.

— The Learnio Team
`

// SMTPSettings holds the relay configuration for the mailer.
type SMTPSettings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// Mailer sends transactional email through an SMTP relay.
type Mailer struct {
	client   *gomail.Client
	settings SMTPSettings
	logger   *slog.Logger
}

// NewMailer constructs a Mailer and validates the relay settings.
func NewMailer(settings SMTPSettings, logger *slog.Logger) (*Mailer, error) {
	client, err := gomail.NewClient(settings.Host,
		gomail.WithPort(settings.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(settings.Username),
		gomail.WithPassword(settings.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}

	return &Mailer{client: client, settings: settings, logger: logger}, nil
}

/*
SendActivation delivers the activation code to a freshly registered address.

The code travels out-of-band: the activation token returned to the client
never contains enough on its own to activate the account.

Parameters:
  - context: context.Context (bounds the SMTP dial and send)
  - email: Recipient address
  - name: Recipient display name
  - code: 4-digit activation code

Returns:
  - error: Relay or addressing failures
*/
func (mailer *Mailer) SendActivation(context context.Context, email, name, code string) error {
	message := gomail.NewMsg()

	if err := message.FromFormat(mailer.settings.FromName, mailer.settings.FromEmail); err != nil {
		return fmt.Errorf("mail: invalid sender address: %w", err)
	}
	if err := message.To(email); err != nil {
		return fmt.Errorf("mail: invalid recipient address: %w", err)
	}

	message.Subject(activationSubject)

	body := strings.NewReplacer("{{name}}", name, "{{code}}", code).Replace(activationBody)
	message.SetBodyString(gomail.TypeTextPlain, body)

	if err := mailer.client.DialAndSendWithContext(context, message); err != nil {
		return fmt.Errorf("mail: failed to send activation email: %w", err)
	}

	mailer.logger.Info("activation_email_sent", slog.String("email", email))
	return nil
}
