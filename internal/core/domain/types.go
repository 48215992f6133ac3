package domain

import "time"

// User is a customer or staff account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	CreatedAt    time.Time
}

// AnonymousUser is the identity of a request that carries no valid credentials.
var AnonymousUser = &User{}

// IsAnonymous reports whether u is the anonymous identity.
func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser || u.ID == ""
}

// App is a registered API client authenticated with a static bearer token.
type App struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// AppToken is an access token belonging to an App. Only the hash is stored.
type AppToken struct {
	ID        string
	AppID     string
	Name      string
	TokenHash string
}

// Channel is a storefront partition of catalog and pricing data.
type Channel struct {
	ID       string
	Slug     string
	Name     string
	Currency string
	IsActive bool
}

// Product is a catalog entry listed in a channel.
type Product struct {
	ID          string
	ChannelSlug string
	Name        string
	CreatedAt   time.Time
}

// Checkout is a shopping session bound to a channel.
type Checkout struct {
	ID          string
	ChannelSlug string
	Email       string
	CreatedAt   time.Time
}
