package usecase

import (
	"context"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
)

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
}

// AuthService exchanges credentials for a session token and back.
type AuthService struct {
	profiles *ProfileResolver
	tokens   interfaces.TokenIssuer
}

func NewAuthService(profiles *ProfileResolver, tokens interfaces.TokenIssuer) *AuthService {
	return &AuthService{profiles: profiles, tokens: tokens}
}

// Login resolves the behavior once and seals it into the token.
func (a *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, err
	}
	id, err := a.profiles.Authenticate(username, password)
	if err != nil {
		return LoginResult{}, err
	}
	tok, exp, err := a.tokens.Issue(domain.Session{Username: id.Username, Behavior: id.Behavior})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok, ExpiresAt: exp, Identity: id}, nil
}

// Authenticate validates a bearer token. The behavior comes from the token;
// the fixture set is only consulted to confirm the identity still exists.
func (a *AuthService) Authenticate(token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.Errorf(domain.KindUnauthenticated, "Not authenticated")
	}
	session, err := a.tokens.Parse(token)
	if err != nil {
		return domain.Session{}, &domain.Error{Kind: domain.KindUnauthenticated, Message: "Could not validate credentials", Err: err}
	}
	if _, err := a.profiles.Resolve(session.Username); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (a *AuthService) Profile(session domain.Session) (domain.Identity, error) {
	id, err := a.profiles.Identity(session.Username)
	if err != nil {
		return domain.Identity{}, err
	}
	id.Behavior = session.Behavior
	return id, nil
}

func (a *AuthService) Users() []domain.Identity {
	return a.profiles.Users()
}
