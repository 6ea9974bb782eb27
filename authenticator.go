package users

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// LocalAuthenticator verifies email/password credentials against the
// directory and exchanges them for access tokens.
type LocalAuthenticator struct {
	repo   RepositoryManager
	tokens TokenIssuer
	logger Logger
}

func NewLocalAuthenticator(repo RepositoryManager, tokens TokenIssuer) *LocalAuthenticator {
	return &LocalAuthenticator{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *LocalAuthenticator) WithLogger(logger Logger) *LocalAuthenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// VerifyCredentials resolves the account and checks the password.
// Unknown email, a passwordless account, and a wrong password all
// come back as ErrInvalidCredentials.
func (s *LocalAuthenticator) VerifyCredentials(ctx context.Context, email, password string) (Identity, error) {
	user, err := s.repo.Users().GetByEmailWithCredentials(ctx, email, WithRole())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to look up account")
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

// Login verifies credentials, refuses inactive accounts, and returns
// a signed access token.
func (s *LocalAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		s.logger.Warn("sign in rejected", "email", email, "error", err)
		return "", err
	}

	if !identity.Active() {
		s.logger.Warn("sign in rejected for inactive account", "email", email)
		return "", ErrAccountInactive
	}

	token, err := s.tokens.Generate(identity)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to issue access token")
	}

	s.logger.Info("sign in", "email", identity.Email())
	return token, nil
}

type authIdentity struct {
	id     string
	email  string
	name   string
	role   string
	active bool
}

func identityFromUser(u *User) authIdentity {
	return authIdentity{
		id:     u.ID.String(),
		email:  u.Email,
		name:   u.Name,
		role:   u.RoleCode(),
		active: u.IsActive,
	}
}

func (a authIdentity) ID() string    { return a.id }
func (a authIdentity) Email() string { return a.email }
func (a authIdentity) Name() string { return a.name }
func (a authIdentity) Role() string { return a.role }
func (a authIdentity) Active() bool { return a.active }
