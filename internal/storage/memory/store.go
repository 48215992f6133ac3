package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
)

// Store is an in-memory implementation of ports.StorageProvider
type Store struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	apps      map[string]*domain.App
	tokens    map[string]*domain.AppToken // tokenHash -> token
	channels  map[string]*domain.Channel  // slug -> channel
	products  []*domain.Product
	checkouts map[string]*domain.Checkout
}

var _ ports.StorageProvider = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		apps:      make(map[string]*domain.App),
		tokens:    make(map[string]*domain.AppToken),
		channels:  make(map[string]*domain.Channel),
		checkouts: make(map[string]*domain.Checkout),
	}
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	user.CreatedAt = time.Now()

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) FindActiveAppByTokenHash(ctx context.Context, tokenHash string) (*domain.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	app, ok := s.apps[tok.AppID]
	if !ok || !app.IsActive {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (s *Store) CreateApp(ctx context.Context, app *domain.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if _, exists := s.apps[app.ID]; exists {
		return fmt.Errorf("app %s already exists", app.ID)
	}
	app.CreatedAt = time.Now()

	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *Store) SetAppActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return fmt.Errorf("app %s: %w", id, ports.ErrNotFound)
	}
	app.IsActive = active
	return nil
}

func (s *Store) AddAppToken(ctx context.Context, token *domain.AppToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[token.AppID]; !ok {
		return fmt.Errorf("app %s: %w", token.AppID, ports.ErrNotFound)
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

func (s *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		cp := *ch
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Slug < result[j].Slug
	})
	return result, nil
}

func (s *Store) GetChannelBySlug(ctx context.Context, slug string) (*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[slug]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (s *Store) CountChannels(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels), nil
}

func (s *Store) CreateChannel(ctx context.Context, ch *domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.channels[ch.Slug]; exists {
		return fmt.Errorf("channel %s already exists", ch.Slug)
	}
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}

	cp := *ch
	s.channels[ch.Slug] = &cp
	return nil
}

func (s *Store) ListProducts(ctx context.Context, channelSlug string) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Product
	for _, p := range s.products {
		if p.ChannelSlug == channelSlug {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()

	cp := *p
	s.products = append(s.products, &cp)
	return nil
}

func (s *Store) CreateCheckout(ctx context.Context, c *domain.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	cp := *c
	s.checkouts[c.ID] = &cp
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
