package usecase

import (
	"fmt"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type fixtureAccount struct {
	identity domain.Identity
	locked   bool
	hash     []byte
}

// ProfileResolver maps fixture identities to their behavior profile.
type ProfileResolver struct {
	accounts map[string]fixtureAccount
	order    []string
}

// NewProfileResolver hashes every fixture password once. A cost of zero
// selects bcrypt.DefaultCost.
func NewProfileResolver(users []domain.FixtureUser, cost int) (*ProfileResolver, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	r := &ProfileResolver{accounts: make(map[string]fixtureAccount, len(users))}
	for _, u := range users {
		if _, dup := r.accounts[u.Username]; dup {
			return nil, fmt.Errorf("duplicate fixture user %s", u.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		r.accounts[u.Username] = fixtureAccount{
			identity: domain.Identity{Username: u.Username, Behavior: u.Behavior, Description: u.Description},
			locked:   u.Locked || u.Behavior == domain.BehaviorLockedOut,
			hash:     hash,
		}
		r.order = append(r.order, u.Username)
	}
	return r, nil
}

// Resolve returns the behavior attached to username.
func (r *ProfileResolver) Resolve(username string) (domain.Behavior, error) {
	acc, ok := r.accounts[username]
	if !ok {
		return "", domain.Errorf(domain.KindUnknownIdentity, "User not found")
	}
	return acc.identity.Behavior, nil
}

// Authenticate checks credentials. A locked account fails with AccountLocked
// before the password is looked at.
func (r *ProfileResolver) Authenticate(username, password string) (domain.Identity, error) {
	acc, ok := r.accounts[username]
	if !ok {
		return domain.Identity{}, domain.Errorf(domain.KindUnknownIdentity, "Invalid username or password")
	}
	if acc.locked {
		return domain.Identity{}, domain.Errorf(domain.KindAccountLocked, "Sorry, this user has been locked out.")
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return domain.Identity{}, domain.Errorf(domain.KindUnauthenticated, "Invalid username or password")
	}
	return acc.identity, nil
}

// Identity returns the public profile of username.
func (r *ProfileResolver) Identity(username string) (domain.Identity, error) {
	acc, ok := r.accounts[username]
	if !ok {
		return domain.Identity{}, domain.Errorf(domain.KindUnknownIdentity, "User not found")
	}
	return acc.identity, nil
}

// Users lists every fixture identity in declaration order.
func (r *ProfileResolver) Users() []domain.Identity {
	out := make([]domain.Identity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.accounts[name].identity)
	}
	return out
}
