package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type FinalizeRecoveryMessage struct {
	Token          string `json:"token" doc:"Recovery token from the recovery email."`
	Password       string `json:"password" doc:"New password."`
	RepeatPassword string `json:"repeatPassword" doc:"New password confirmation."`
}

func (FinalizeRecoveryMessage) Type() string { return "user.recovery_finalize" }

// FinalizeRecoveryHandler redeems a recovery token and sets the new
// password. Only tokens minted for recovery are accepted, the token
// owner must still have an outstanding ledger entry, and redeeming
// consumes the entry so the token cannot be replayed.
type FinalizeRecoveryHandler struct {
	repo      RepositoryManager
	validator TokenValidator
	logger    Logger
}

func NewFinalizeRecoveryHandler(repo RepositoryManager, validator TokenValidator) *FinalizeRecoveryHandler {
	return &FinalizeRecoveryHandler{
		repo:      repo,
		validator: validator,
		logger:    defLogger{},
	}
}

func (h *FinalizeRecoveryHandler) WithLogger(logger Logger) *FinalizeRecoveryHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizeRecoveryHandler) Execute(ctx context.Context, event FinalizeRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizeRecoveryHandler) execute(ctx context.Context, event FinalizeRecoveryMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Password != event.RepeatPassword {
		return ErrPasswordMismatch
	}

	claims, err := h.validator.Validate(event.Token)
	if err != nil {
		return err
	}

	if !claims.IsRecovery() {
		h.logger.Warn("change password attempted with non recovery token", "email", claims.UserEmail())
		return ErrInvalidRecoveryToken
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrInvalidRecoveryToken
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entry, err := h.repo.PasswordRecoveries().GetByUserIDTx(ctx, tx, userID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidRecoveryToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up recovery entry")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, userID, passwordHash); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidRecoveryToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		if err := h.repo.PasswordRecoveries().DeleteByIDTx(ctx, tx, entry.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume recovery entry")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password recovery")
	}

	h.logger.Info("password updated via recovery", "email", claims.UserEmail())
	return nil
}
