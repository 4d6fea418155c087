// Package auth supplies the current user. There is no login: the profile
// comes from configuration and edits are held in memory.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/pkg/models"
)

type Provider interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error)
}

type StaticProvider struct {
	mu   sync.RWMutex
	user models.User
}

func NewStaticProvider(user models.User) *StaticProvider {
	return &StaticProvider{user: user}
}

func (p *StaticProvider) CurrentUser(ctx context.Context) (*models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u := p.user
	return &u, nil
}

func (p *StaticProvider) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.user
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("name", "is required")
		}
		next.Name = name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.Validation("email", "is not a valid address")
		}
		next.Email = email
	}
	if patch.Avatar != nil {
		next.Avatar = *patch.Avatar
	}

	p.user = next
	u := next
	return &u, nil
}
