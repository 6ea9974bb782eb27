package users

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// UserCreatedMessage is dispatched after a user is created, carrying
// the recovery token the new account can use to set a first password.
type UserCreatedMessage struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (UserCreatedMessage) Type() string { return "user.created" }

// RecoveryRequestedMessage is dispatched when a password recovery is
// initiated for a known account.
type RecoveryRequestedMessage struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Token  string    `json:"token"`
}

func (RecoveryRequestedMessage) Type() string { return "user.recovery-password" }

// MessageHandler reacts to a dispatched message.
type MessageHandler func(ctx context.Context, msg Message) error

// MessageMux fans messages out to handlers registered by type.
// Handler failures are logged and swallowed so that notification
// delivery never fails the request that produced the message.
type MessageMux struct {
	mu       sync.RWMutex
	handlers map[string][]MessageHandler
	logger   Logger
}

func NewMessageMux() *MessageMux {
	return &MessageMux{
		handlers: map[string][]MessageHandler{},
		logger:   defLogger{},
	}
}

func (m *MessageMux) WithLogger(logger Logger) *MessageMux {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *MessageMux) Handle(msgType string, handler MessageHandler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[msgType] = append(m.handlers[msgType], handler)
}

func (m *MessageMux) Dispatch(ctx context.Context, msg Message) error {
	m.mu.RLock()
	handlers := m.handlers[msg.Type()]
	m.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			m.logger.Error("message handler failed", "type", msg.Type(), "error", err)
		}
	}
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx context.Context, msg Message) error { return nil }
