package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type CreateUserMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email, unique."`
	Name       string `json:"name" example:"Pepe Rone" doc:"Display name."`
	IsActive   *bool  `json:"isActive" doc:"Initial active flag, defaults to true."`
	OnResponse func(user *User)
}

func (CreateUserMessage) Type() string { return "user.create" }

// CreateUserHandler registers an account without a password, mints a
// recovery token so the owner can set one, and records the token in
// the recovery ledger. The token travels out of band in the
// user.created message, never in the HTTP response.
type CreateUserHandler struct {
	repo       RepositoryManager
	tokens     TokenIssuer
	dispatcher Dispatcher
	logger     Logger
}

func NewCreateUserHandler(repo RepositoryManager, tokens TokenIssuer, dispatcher Dispatcher) *CreateUserHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &CreateUserHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (h *CreateUserHandler) WithLogger(logger Logger) *CreateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, event CreateUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{
		Email:    NormalizeEmail(event.Email),
		Name:     event.Name,
		IsActive: true,
	}
	if event.IsActive != nil {
		user.IsActive = *event.IsActive
	}

	var token string
	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
		}

		if token, err = h.tokens.GenerateRecovery(identityFromUser(user), time.Now().Add(RecoveryTokenTTL)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue recovery token")
		}

		if _, err = h.repo.PasswordRecoveries().CreateTx(ctx, tx, &PasswordRecovery{
			Token:  token,
			UserID: user.ID,
		}); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record recovery token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	if user, err = h.repo.Users().GetWithRole(ctx, user.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reload created user")
	}

	h.dispatcher.Dispatch(ctx, UserCreatedMessage{User: user, Token: token})
	h.logger.Info("user created", "email", user.Email, "id", user.ID)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
