package admin

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/matthewhartstonge/argon2"
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountExists      = errors.New("account already exists")
	ErrForbidden          = errors.New("admin role required")
)

// Role grants access to parts of the console.
type Role string

const (
	RoleCustomer         Role = "customer"
	RoleInventoryManager Role = "inventory_manager"
	RoleUserManager      Role = "user_manager"
	RoleSuperAdmin       Role = "super_admin"
)

// ParseRole validates s.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleInventoryManager, RoleUserManager, RoleSuperAdmin:
		return r, nil
	default:
		return "", &ValidationError{Field: "role", Reason: "unknown role " + s}
	}
}

// Account is a signed-in console user.
type Account struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// IsAdmin reports whether the account may use the console.
func (a Account) IsAdmin() bool {
	return a.Role != RoleCustomer
}

type registered struct {
	account Account
	hash    []byte
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// AuthOption configures Auth.
type AuthOption func(*Auth)

// WithArgon2 overrides the password hashing parameters.
func WithArgon2(cfg argon2.Config) AuthOption {
	return func(a *Auth) { a.argon = cfg }
}

// WithAuthClock overrides the time source for token issue and expiry.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

// Auth issues HS256 session tokens.
//
// Registered accounts are checked against their argon2 hash. Any other email
// signs in with any non-empty password: the name is the email's local part
// and the role is inventory_manager when the email contains "admin".
type Auth struct {
	secret []byte
	ttl    time.Duration
	argon  argon2.Config
	now    func() time.Time

	mu       sync.Mutex
	accounts map[string]registered
	revoked  map[string]time.Time
}

// NewAuth returns an Auth signing with secret. Tokens live for ttl.
func NewAuth(secret []byte, ttl time.Duration, opts ...AuthOption) *Auth {
	a := &Auth{
		secret:   secret,
		ttl:      ttl,
		argon:    argon2.DefaultConfig(),
		now:      time.Now,
		accounts: make(map[string]registered),
		revoked:  make(map[string]time.Time),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// SignUp registers an account with an argon2-hashed password.
func (a *Auth) SignUp(_ context.Context, email, password, name, role string) (Account, error) {
	email = normalizeEmail(email)
	switch {
	case email == "":
		return Account{}, &ValidationError{Field: "email", Reason: "required"}
	case password == "":
		return Account{}, &ValidationError{Field: "password", Reason: "required"}
	case strings.TrimSpace(name) == "":
		return Account{}, &ValidationError{Field: "name", Reason: "required"}
	}
	r, err := ParseRole(role)
	if err != nil {
		return Account{}, err
	}

	hash, err := a.argon.HashEncoded([]byte(password))
	if err != nil {
		return Account{}, errors.Wrap(err, "hash password")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[email]; ok {
		return Account{}, ErrAccountExists
	}
	acc := Account{ID: uuid.NewString(), Email: email, Name: strings.TrimSpace(name), Role: r}
	a.accounts[email] = registered{account: acc, hash: hash}
	return acc, nil
}

// SignIn authenticates and returns a signed token.
func (a *Auth) SignIn(_ context.Context, email, password string) (string, Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", Account{}, ErrInvalidCredentials
	}

	a.mu.Lock()
	reg, ok := a.accounts[email]
	a.mu.Unlock()

	var acc Account
	if ok {
		match, err := argon2.VerifyEncoded([]byte(password), reg.hash)
		if err != nil || !match {
			return "", Account{}, ErrInvalidCredentials
		}
		acc = reg.account
	} else {
		acc = guestAccount(email)
	}

	token, err := a.issue(acc)
	if err != nil {
		return "", Account{}, err
	}
	return token, acc, nil
}

// SignOut revokes token until it would have expired anyway.
func (a *Auth) SignOut(_ context.Context, token string) error {
	c, err := a.parse(token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[c.ID] = c.ExpiresAt.Time
	a.pruneLocked()
	return nil
}

// Verify returns the account a live token was issued for.
func (a *Auth) Verify(_ context.Context, token string) (Account, error) {
	c, err := a.parse(token)
	if err != nil {
		return Account{}, err
	}
	a.mu.Lock()
	_, revoked := a.revoked[c.ID]
	a.mu.Unlock()
	if revoked {
		return Account{}, errors.Wrap(ErrInvalidToken, "revoked")
	}
	return Account{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}

func (a *Auth) issue(acc Account) (string, error) {
	now := a.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Email: acc.Email,
		Name:  acc.Name,
		Role:  acc.Role,
	})
	signed, err := t.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (a *Auth) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "%v", err)
	}
	return &c, nil
}

// pruneLocked forgets revocations of tokens that have expired.
func (a *Auth) pruneLocked() {
	now := a.now()
	for id, exp := range a.revoked {
		if exp.Before(now) {
			delete(a.revoked, id)
		}
	}
}

func guestAccount(email string) Account {
	name, _, _ := strings.Cut(email, "@")
	role := RoleCustomer
	if strings.Contains(email, "admin") {
		role = RoleInventoryManager
	}
	return Account{ID: uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(), Email: email, Name: name, Role: role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
