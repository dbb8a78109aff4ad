package service

import (
	"context"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
)

// ItemService lists the resources a user owns. Every account currently owns
// a single placeholder item.
type ItemService struct{}

func (s *ItemService) ListOwned(_ context.Context, owner domain.User) []domain.Item {
	return []domain.Item{{ItemID: "Foo", Owner: owner.Username}}
}
