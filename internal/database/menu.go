package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/models"

	"github.com/jmoiron/sqlx"
)

const menuColumns = `id, name, description, price, category, image, available,
	is_veg, is_spicy, is_signature, tags, created_at, updated_at`

type menuRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Price       int64  `db:"price"`
	Category    string `db:"category"`
	Image       string `db:"image"`
	Available   bool   `db:"available"`
	IsVeg       bool   `db:"is_veg"`
	IsSpicy     bool   `db:"is_spicy"`
	IsSignature bool   `db:"is_signature"`
	Tags        string `db:"tags"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r menuRow) toModel() (models.MenuItem, error) {
	item := models.MenuItem{
		ID:          strconv.FormatInt(r.ID, 10),
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Image:       r.Image,
		Available:   r.Available,
		IsVeg:       r.IsVeg,
		IsSpicy:     r.IsSpicy,
		IsSignature: r.IsSignature,
		CreatedAt:   fromNanos(r.CreatedAt),
		UpdatedAt:   fromNanos(r.UpdatedAt),
	}
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &item.Tags); err != nil {
			return models.MenuItem{}, fmt.Errorf("decode tags of menu item %d: %w", r.ID, err)
		}
	}
	return item, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		return "", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func (db *DB) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var rows []menuRow
	query := `SELECT ` + menuColumns + ` FROM menu_items ORDER BY updated_at DESC, id DESC`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}

	out := make([]models.MenuItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (db *DB) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return getMenuItem(ctx, db.DB, n)
}

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return err
	}

	query := `INSERT INTO menu_items (
				name, description, price, category, image, available,
				is_veg, is_spicy, is_signature, tags, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Price,
		item.Category,
		item.Image,
		item.Available,
		item.IsVeg,
		item.IsSpicy,
		item.IsSignature,
		tags,
		toNanos(item.CreatedAt),
		toNanos(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch, at time.Time) (*models.MenuItem, error) {
	return db.mutateMenuItem(ctx, id, func(item *models.MenuItem) {
		patch.Apply(item, at)
	})
}

func (db *DB) ToggleMenuItem(ctx context.Context, id string, at time.Time) (*models.MenuItem, error) {
	return db.mutateMenuItem(ctx, id, func(item *models.MenuItem) {
		item.Available = !item.Available
		item.UpdatedAt = at
	})
}

func (db *DB) DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := getMenuItem(ctx, tx, n)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, n); err != nil {
		return nil, fmt.Errorf("failed to delete menu item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return item, nil
}

func (db *DB) CountMenuItems(ctx context.Context) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM menu_items`); err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	return count, nil
}

// mutateMenuItem reads, changes and rewrites one row inside a transaction.
func (db *DB) mutateMenuItem(ctx context.Context, id string, mutate func(*models.MenuItem)) (*models.MenuItem, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := getMenuItem(ctx, tx, n)
	if err != nil {
		return nil, err
	}
	mutate(item)

	tags, err := encodeTags(item.Tags)
	if err != nil {
		return nil, err
	}
	query := `UPDATE menu_items SET
				name = ?, description = ?, price = ?, category = ?, image = ?, available = ?,
				is_veg = ?, is_spicy = ?, is_signature = ?, tags = ?, updated_at = ?
			WHERE id = ?`
	_, err = tx.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Price,
		item.Category,
		item.Image,
		item.Available,
		item.IsVeg,
		item.IsSpicy,
		item.IsSignature,
		tags,
		toNanos(item.UpdatedAt),
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return item, nil
}

func getMenuItem(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.MenuItem, error) {
	var row menuRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	item, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}
