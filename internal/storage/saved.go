package storage

import (
	"context"
	"errors"

	"github.com/samber/lo"
)

// SavedSet is a per-user set of string keys persisted as a JSON array.
type SavedSet struct {
	store Store
}

func NewSavedSet(store Store) *SavedSet {
	return &SavedSet{store: store}
}

// List returns the saved keys in insertion order.
func (s *SavedSet) List(ctx context.Context, userID string) ([]string, error) {
	var keys []string
	err := GetJSON(ctx, s.store, SavedRecipesKey(userID), &keys)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return keys, err
}

// Contains reports whether key is saved.
func (s *SavedSet) Contains(ctx context.Context, userID, key string) (bool, error) {
	keys, err := s.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return lo.Contains(keys, key), nil
}

// Add inserts key if missing.
func (s *SavedSet) Add(ctx context.Context, userID, key string) error {
	keys, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	if lo.Contains(keys, key) {
		return nil
	}
	return PutJSON(ctx, s.store, SavedRecipesKey(userID), append(keys, key))
}

// Remove deletes key if present.
func (s *SavedSet) Remove(ctx context.Context, userID, key string) error {
	keys, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	if !lo.Contains(keys, key) {
		return nil
	}
	return PutJSON(ctx, s.store, SavedRecipesKey(userID), lo.Without(keys, key))
}
