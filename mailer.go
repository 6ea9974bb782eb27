package users

import (
	"context"
	"fmt"
)

// Mailer delivers a message to a recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the log instead of delivering it.
// It stands in for a real provider in development and tests.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("outgoing mail", "to", to, "subject", subject, "body", body)
	return nil
}

// UserMailer turns account lifecycle messages into emails.
type UserMailer struct {
	mailer  Mailer
	baseURL string
	logger  Logger
}

func NewUserMailer(mailer Mailer, baseURL string) *UserMailer {
	return &UserMailer{
		mailer:  mailer,
		baseURL: baseURL,
		logger:  defLogger{},
	}
}

func (m *UserMailer) WithLogger(logger Logger) *UserMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Register subscribes the mailer to the messages it cares about.
func (m *UserMailer) Register(mux *MessageMux) {
	mux.Handle(UserCreatedMessage{}.Type(), func(ctx context.Context, msg Message) error {
		event, ok := msg.(UserCreatedMessage)
		if !ok {
			return nil
		}
		return m.handleUserCreated(ctx, event)
	})

	mux.Handle(RecoveryRequestedMessage{}.Type(), func(ctx context.Context, msg Message) error {
		event, ok := msg.(RecoveryRequestedMessage)
		if !ok {
			return nil
		}
		return m.handleRecoveryRequested(ctx, event)
	})
}

func (m *UserMailer) handleUserCreated(ctx context.Context, event UserCreatedMessage) error {
	if event.User == nil {
		return nil
	}
	body := fmt.Sprintf(
		"Welcome %s. Set your password at %s/change-password?token=%s",
		event.User.Name, m.baseURL, event.Token,
	)
	return m.mailer.Send(ctx, event.User.Email, "Welcome", body)
}

func (m *UserMailer) handleRecoveryRequested(ctx context.Context, event RecoveryRequestedMessage) error {
	body := fmt.Sprintf(
		"Hi %s. Reset your password at %s/change-password?token=%s",
		event.Name, m.baseURL, event.Token,
	)
	return m.mailer.Send(ctx, event.Email, "Password recovery", body)
}
