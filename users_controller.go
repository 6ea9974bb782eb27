package users

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// PaginatedUsers is the list envelope.
type PaginatedUsers struct {
	Data  []*User `json:"data"`
	Count int     `json:"count"`
}

// UsersController handles the guarded directory endpoints.
type UsersController struct {
	repo       RepositoryManager
	create     *CreateUserHandler
	contextKey string
	logger     Logger
}

func NewUsersController(repo RepositoryManager, create *CreateUserHandler, contextKey string) *UsersController {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	return &UsersController{
		repo:       repo,
		create:     create,
		contextKey: contextKey,
		logger:     defLogger{},
	}
}

func (u *UsersController) WithLogger(logger Logger) *UsersController {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// Current returns the profile of the authenticated user.
func (u *UsersController) Current(c *fiber.Ctx) error {
	current, err := CurrentFromCtx(c, u.contextKey)
	if err != nil {
		return err
	}

	user, err := u.repo.Users().GetWithRole(c.UserContext(), current.ID)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// CreateUserPayload is the create user body
type CreateUserPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsActive *bool  `json:"isActive"`
}

// Validate will run validation rules
func (r CreateUserPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
			validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		)
	}, "Invalid create user payload")
}

// Create registers a passwordless account and returns it. The first
// password is set through the recovery flow.
func (u *UsersController) Create(c *fiber.Ctx) error {
	payload := new(CreateUserPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse create user payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	var created *User
	err := u.create.Execute(c.UserContext(), CreateUserMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		IsActive: payload.IsActive,
		OnResponse: func(user *User) {
			created = user
		},
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns a page of users ordered by name. term filters email
// and name case insensitively, offset counts pages of size limit.
func (u *UsersController) List(c *fiber.Ctx) error {
	filter := SearchFilter{
		Term:   c.Query("term"),
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", DefaultPageSize),
	}

	records, count, err := u.repo.Users().Search(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(PaginatedUsers{Data: records, Count: count})
}

// Get returns one user by id.
func (u *UsersController) Get(c *fiber.Ctx) error {
	id, err := parseUserID(c.Params("id"))
	if err != nil {
		return err
	}

	user, err := u.repo.Users().GetWithRole(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// ToggleActive flips the active flag and returns the updated user.
func (u *UsersController) ToggleActive(c *fiber.Ctx) error {
	id, err := parseUserID(c.Params("id"))
	if err != nil {
		return err
	}

	user, err := u.repo.Users().ToggleActive(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// AdminChangePasswordPayload is the admin set password body
type AdminChangePasswordPayload struct {
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Validate will run validation rules
func (r AdminChangePasswordPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
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

// SetPassword sets a user's password directly, addressed by email.
func (u *UsersController) SetPassword(c *fiber.Ctx) error {
	email := c.Params("email")

	payload := new(AdminChangePasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse change password payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	passwordHash, err := HashPassword(payload.Password)
	if err != nil {
		return err
	}

	if err := u.repo.Users().SetPasswordByEmail(c.UserContext(), email, passwordHash); err != nil {
		return err
	}

	u.logger.Info("password updated", "email", email)
	return c.JSON(MessageResponse{Message: PasswordUpdatedMessage})
}

// UpdateUserPayload is the profile update body. Only name and the
// active flag are mutable; absent fields are left untouched.
type UpdateUserPayload struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

// Validate will run validation rules
func (r UpdateUserPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		)
	}, "Invalid update user payload")
}

// Update patches name and active flag.
func (u *UsersController) Update(c *fiber.Ctx) error {
	id, err := parseUserID(c.Params("id"))
	if err != nil {
		return err
	}

	payload := new(UpdateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse update user payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	user, err := u.repo.Users().UpdateProfile(c.UserContext(), id, UserUpdate{
		Name:     payload.Name,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return err
	}

	return c.JSON(user)
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}
