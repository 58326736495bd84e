package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// MenuStore reads restaurant and menu data. The administrative surface
// writes it; from this service's perspective it is read-only.
type MenuStore struct {
	db *bun.DB
}

func NewMenuStore(db *bun.DB) *MenuStore {
	return &MenuStore{db: db}
}

// RestaurantByPhone resolves the restaurant a caller dialed.
func (s *MenuStore) RestaurantByPhone(ctx context.Context, phoneNumber string) (*Restaurant, error) {
	r := new(Restaurant)
	err := s.db.NewSelect().
		Model(r).
		Where("phone_number = ?", phoneNumber).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: phone=%s", ErrRestaurantNotFound, phoneNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("select restaurant: %w", err)
	}
	return r, nil
}

// ItemsByRestaurant returns the restaurant's menu with categories,
// name-ordered so downstream matching and prompt building are
// deterministic.
func (s *MenuStore) ItemsByRestaurant(ctx context.Context, restaurantID int64) ([]MenuItem, error) {
	var items []MenuItem
	err := s.db.NewSelect().
		Model(&items).
		Relation("Category").
		Where("menu_item.restaurant_id = ?", restaurantID).
		Order("menu_item.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	return items, nil
}

// SettingStore looks up runtime-tunable admin values.
type SettingStore struct {
	db *bun.DB
}

func NewSettingStore(db *bun.DB) *SettingStore {
	return &SettingStore{db: db}
}

func (s *SettingStore) Get(ctx context.Context, key string) (string, error) {
	setting := new(Setting)
	err := s.db.NewSelect().
		Model(setting).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: key=%s", ErrSettingNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("select setting: %w", err)
	}
	return setting.Value, nil
}
