package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// NurseRepository 护士仓储
type NurseRepository struct {
	db DB
}

// NewNurseRepository 创建护士仓储
func NewNurseRepository(db DB) *NurseRepository {
	return &NurseRepository{db: db}
}

// Create 创建护士
func (r *NurseRepository) Create(ctx context.Context, nurse *model.Nurse) error {
	if nurse.ID == uuid.Nil {
		nurse.ID = uuid.New()
	}
	if nurse.Status == "" {
		nurse.Status = "active"
	}
	now := time.Now()
	nurse.CreatedAt = now
	nurse.UpdatedAt = now

	rulesJSON, err := json.Marshal(nurse.PersonalRules)
	if err != nil {
		return fmt.Errorf("序列化个人规则失败: %w", err)
	}

	query := `
		INSERT INTO nurses (id, org_id, name, email, years_of_experience, personal_rules, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.ExecContext(ctx, query,
		nurse.ID, nurse.OrgID, nurse.Name, nurse.Email, nurse.YearsOfExperience,
		rulesJSON, nurse.Status, nurse.CreatedAt, nurse.UpdatedAt,
	); err != nil {
		return fmt.Errorf("创建护士失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取护士
func (r *NurseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Nurse, error) {
	query := `
		SELECT id, org_id, name, email, years_of_experience, personal_rules, status, created_at, updated_at
		FROM nurses
		WHERE id = $1
	`
	return r.scanNurse(r.db.QueryRowContext(ctx, query, id))
}

// ListByOrg 列出组织内的护士
func (r *NurseRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]*model.Nurse, int, error) {
	where := "WHERE org_id = $1"
	args := []interface{}{orgID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += " AND name ILIKE $" + strconv.Itoa(len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM nurses " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计护士数量失败: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, org_id, name, email, years_of_experience, personal_rules, status, created_at, updated_at
		FROM nurses
		%s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询护士列表失败: %w", err)
	}
	defer rows.Close()

	var nurses []*model.Nurse
	for rows.Next() {
		nurse, err := r.scanNurse(rows)
		if err != nil {
			return nil, 0, err
		}
		nurses = append(nurses, nurse)
	}
	return nurses, total, rows.Err()
}

// ListActiveByOrg 列出组织内全部在职护士，供排班引擎使用
func (r *NurseRepository) ListActiveByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.Nurse, error) {
	query := `
		SELECT id, org_id, name, email, years_of_experience, personal_rules, status, created_at, updated_at
		FROM nurses
		WHERE org_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询在职护士失败: %w", err)
	}
	defer rows.Close()

	var nurses []*model.Nurse
	for rows.Next() {
		nurse, err := r.scanNurse(rows)
		if err != nil {
			return nil, err
		}
		nurses = append(nurses, nurse)
	}
	return nurses, rows.Err()
}

// Update 更新护士
func (r *NurseRepository) Update(ctx context.Context, nurse *model.Nurse) error {
	nurse.UpdatedAt = time.Now()

	rulesJSON, err := json.Marshal(nurse.PersonalRules)
	if err != nil {
		return fmt.Errorf("序列化个人规则失败: %w", err)
	}

	query := `
		UPDATE nurses
		SET name = $2, email = $3, years_of_experience = $4, personal_rules = $5, status = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		nurse.ID, nurse.Name, nurse.Email, nurse.YearsOfExperience, rulesJSON, nurse.Status, nurse.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新护士失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("护士", nurse.ID.String())
	}
	return nil
}

// Delete 删除护士
func (r *NurseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM nurses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除护士失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("护士", id.String())
	}
	return nil
}

// scanNurse 扫描单行护士记录
func (r *NurseRepository) scanNurse(row Scanner) (*model.Nurse, error) {
	var nurse model.Nurse
	var rulesJSON []byte

	err := row.Scan(
		&nurse.ID, &nurse.OrgID, &nurse.Name, &nurse.Email, &nurse.YearsOfExperience,
		&rulesJSON, &nurse.Status, &nurse.CreatedAt, &nurse.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("护士", "unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("查询护士失败: %w", err)
	}

	if err := json.Unmarshal(rulesJSON, &nurse.PersonalRules); err != nil {
		return nil, fmt.Errorf("解析个人规则失败: %w", err)
	}
	return &nurse, nil
}
