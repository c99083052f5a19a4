package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
)

const ruleColumns = `id, pattern_type, pattern_value, category_id, parent_category_id,
	confidence_score, use_count, created_at, updated_at`

// CreateRule creates a new similarity pattern rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	if err := s.verifyRuleTargets(ctx, rule); err != nil {
		return err
	}

	if rule.Confidence == 0 {
		rule.Confidence = 1.0
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO similarity_patterns (
			pattern_type, pattern_value, category_id, parent_category_id, confidence_score
		) VALUES (?, ?, ?, ?, ?)
	`, string(rule.PatternType), rule.PatternValue, rule.CategoryID, rule.ParentCategoryID, rule.Confidence)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = id

	return nil
}

// GetRule retrieves a rule by id.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM similarity_patterns WHERE id = ?", ruleColumns)
	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetRules retrieves every rule ordered by id, oldest first. The matcher
// breaks confidence ties in favor of the first rule evaluated, so this
// ordering makes tie-breaking deterministic.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM similarity_patterns ORDER BY id ASC", ruleColumns)
	return s.queryRules(ctx, query)
}

// GetRulesWithCategory retrieves rules carrying a concrete category id.
// Parent-only rules are excluded: the batch scan never guesses which child
// category a parent-only rule meant.
func (s *SQLiteStorage) GetRulesWithCategory(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM similarity_patterns WHERE category_id IS NOT NULL ORDER BY id ASC", ruleColumns)
	return s.queryRules(ctx, query)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule updates an existing rule. The use counter is not touched
// here; it only moves through IncrementRuleUseCount.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	if err := s.verifyRuleTargets(ctx, rule); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE similarity_patterns SET
			pattern_type = ?, pattern_value = ?, category_id = ?,
			parent_category_id = ?, confidence_score = ?
		WHERE id = ?
	`, string(rule.PatternType), rule.PatternValue, rule.CategoryID,
		rule.ParentCategoryID, rule.Confidence, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteRule deletes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM similarity_patterns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// IncrementRuleUseCount increments a rule's use counter. The counter is
// monotonic; nothing ever resets it.
func (s *SQLiteStorage) IncrementRuleUseCount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE similarity_patterns SET use_count = use_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment rule use count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// verifyRuleTargets ensures the rule's category and parent targets exist.
func (s *SQLiteStorage) verifyRuleTargets(ctx context.Context, rule *model.Rule) error {
	if rule.CategoryID != nil {
		if _, err := s.GetCategoryByID(ctx, *rule.CategoryID); err != nil {
			return err
		}
	}
	if rule.ParentCategoryID != nil {
		if _, err := s.GetParentCategoryByID(ctx, *rule.ParentCategoryID); err != nil {
			return err
		}
	}
	return nil
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var patternType string
	var categoryID, parentID sql.NullInt64

	err := row.Scan(
		&rule.ID, &patternType, &rule.PatternValue, &categoryID, &parentID,
		&rule.Confidence, &rule.UseCount, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.PatternType = model.PatternType(patternType)
	if categoryID.Valid {
		rule.CategoryID = &categoryID.Int64
	}
	if parentID.Valid {
		rule.ParentCategoryID = &parentID.Int64
	}
	return &rule, nil
}
