package users

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// RecoveryAcknowledgement is returned for every recovery request,
// whether or not the email belongs to an account.
const RecoveryAcknowledgement = "If the email exists, a recovery message has been sent"

// PasswordUpdatedMessage acknowledges a completed password change.
const PasswordUpdatedMessage = "Password updated"

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthController handles the public authentication endpoints.
type AuthController struct {
	auth       *LocalAuthenticator
	initialize *InitializeRecoveryHandler
	finalize   *FinalizeRecoveryHandler
	logger     Logger
}

func NewAuthController(auth *LocalAuthenticator, initialize *InitializeRecoveryHandler, finalize *FinalizeRecoveryHandler) *AuthController {
	return &AuthController{
		auth:       auth,
		initialize: initialize,
		finalize:   finalize,
		logger:     defLogger{},
	}
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// SignInPayload is the sign in body
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignInPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid sign in payload")
}

// SignIn exchanges email/password for an access token.
func (a *AuthController) SignIn(c *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse sign in payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := a.auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{Token: token})
}

// RecoveryPayload is the recovery request body
type RecoveryPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r RecoveryPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
		)
	}, "Invalid recovery payload")
}

// RecoveryPassword starts a password recovery. The response does not
// reveal whether the email belongs to an account.
func (a *AuthController) RecoveryPassword(c *fiber.Ctx) error {
	payload := new(RecoveryPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse recovery payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := a.initialize.Execute(c.UserContext(), InitializeRecoveryMessage{
		Email: payload.Email,
	}); err != nil {
		return err
	}

	return c.JSON(MessageResponse{Message: RecoveryAcknowledgement})
}

// ChangePasswordPayload is the change password body
type ChangePasswordPayload struct {
	Token          string `json:"token"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Token, validation.Required),
			validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
			validation.Field(
				&r.RepeatPassword,
				validation.Required,
				validation.Length(8, 100),
				validation.By(ValidateStringEquals(r.Password)),
			),
		)
	}, "Invalid change password payload")
}

// ChangePassword redeems a recovery token and sets a new password.
func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	payload := new(ChangePasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse change password payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := a.finalize.Execute(c.UserContext(), FinalizeRecoveryMessage{
		Token:          payload.Token,
		Password:       payload.Password,
		RepeatPassword: payload.RepeatPassword,
	}); err != nil {
		return err
	}

	return c.JSON(MessageResponse{Message: PasswordUpdatedMessage})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
