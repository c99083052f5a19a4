package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
)

// GetCategories retrieves all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `
		SELECT id, name, parent_category_id, created_at
		FROM categories
		ORDER BY name ASC
	`)
}

// GetCategoriesByParent retrieves a parent's categories ordered by name.
// The matcher relies on this ordering when resolving parent-only rules.
func (s *SQLiteStorage) GetCategoriesByParent(ctx context.Context, parentID int64) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `
		SELECT id, name, parent_category_id, created_at
		FROM categories
		WHERE parent_category_id = ?
		ORDER BY name ASC
	`, parentID)
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	category, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name, parent_category_id, created_at
		FROM categories
		WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// GetCategoryByName retrieves a category by name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	category, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name, parent_category_id, created_at
		FROM categories
		WHERE name = ?
	`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// CreateCategory creates a new category, optionally under a parent.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, parentID *int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	if parentID != nil {
		if _, err := s.GetParentCategoryByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, parent_category_id) VALUES (?, ?)
	`, name, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	return s.GetCategoryByID(ctx, id)
}

// DeleteCategory deletes a category. A category referenced by rules or by
// any category link cannot be deleted.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var dependents int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM similarity_patterns WHERE category_id = ?1) +
				(SELECT COUNT(*) FROM category_links WHERE category_id = ?1)
		`, id).Scan(&dependents)
		if err != nil {
			return fmt.Errorf("failed to count category dependents: %w", err)
		}
		if dependents > 0 {
			return fmt.Errorf("category %d has %d dependent rules or links: %w", id, dependents, common.ErrCategoryInUse)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

// GetParentCategories retrieves all parent categories ordered by name.
func (s *SQLiteStorage) GetParentCategories(ctx context.Context) ([]model.ParentCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM parent_categories ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var parents []model.ParentCategory
	for rows.Next() {
		var parent model.ParentCategory
		if err := rows.Scan(&parent.ID, &parent.Name, &parent.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parent category: %w", err)
		}
		parents = append(parents, parent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parent categories: %w", err)
	}
	return parents, nil
}

// GetParentCategoryByID retrieves a parent category by id.
func (s *SQLiteStorage) GetParentCategoryByID(ctx context.Context, id int64) (*model.ParentCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var parent model.ParentCategory
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM parent_categories WHERE id = ?
	`, id).Scan(&parent.ID, &parent.Name, &parent.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("parent category %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get parent category: %w", err)
	}
	return &parent, nil
}

// CreateParentCategory creates a new parent category.
func (s *SQLiteStorage) CreateParentCategory(ctx context.Context, name string) (*model.ParentCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, "INSERT INTO parent_categories (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get parent category ID: %w", err)
	}

	return s.GetParentCategoryByID(ctx, id)
}

// DeleteParentCategory deletes a parent category. Parents with child
// categories or dependent rules cannot be deleted.
func (s *SQLiteStorage) DeleteParentCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var dependents int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM categories WHERE parent_category_id = ?1) +
				(SELECT COUNT(*) FROM similarity_patterns WHERE parent_category_id = ?1)
		`, id).Scan(&dependents)
		if err != nil {
			return fmt.Errorf("failed to count parent category dependents: %w", err)
		}
		if dependents > 0 {
			return fmt.Errorf("parent category %d has %d dependent categories or rules: %w", id, dependents, common.ErrCategoryInUse)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM parent_categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete parent category: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("parent category %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var category model.Category
	var parentID sql.NullInt64
	if err := row.Scan(&category.ID, &category.Name, &parentID, &category.CreatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		category.ParentID = &parentID.Int64
	}
	return &category, nil
}
