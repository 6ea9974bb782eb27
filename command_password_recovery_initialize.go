package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializeRecoveryMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
}

func (InitializeRecoveryMessage) Type() string { return "user.recovery_initialize" }

// InitializeRecoveryHandler starts a password recovery. It succeeds
// whether or not the email belongs to an account, so callers cannot
// probe the directory. Multiple outstanding recoveries per account
// are allowed; each adds its own ledger entry.
type InitializeRecoveryHandler struct {
	repo       RepositoryManager
	tokens     TokenIssuer
	dispatcher Dispatcher
	logger     Logger
}

func NewInitializeRecoveryHandler(repo RepositoryManager, tokens TokenIssuer, dispatcher Dispatcher) *InitializeRecoveryHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &InitializeRecoveryHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (h *InitializeRecoveryHandler) WithLogger(logger Logger) *InitializeRecoveryHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializeRecoveryHandler) Execute(ctx context.Context, event InitializeRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializeRecoveryHandler) execute(ctx context.Context, event InitializeRecoveryMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var token string
	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err != nil {
			if repository.IsRecordNotFound(err) {
				// Unknown address: acknowledge without acting.
				user = nil
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password recovery")
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password recovery")
	}

	if user == nil {
		h.logger.Debug("recovery requested for unknown email", "email", event.Email)
		return nil
	}

	h.dispatcher.Dispatch(ctx, RecoveryRequestedMessage{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	})
	h.logger.Info("password recovery initiated", "email", user.Email)

	return nil
}
