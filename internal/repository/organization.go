package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// OrganizationRepository 组织仓储
type OrganizationRepository struct {
	db DB
}

// NewOrganizationRepository 创建组织仓储
func NewOrganizationRepository(db DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create 创建组织
func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	settingsJSON, err := json.Marshal(org.Settings)
	if err != nil {
		return fmt.Errorf("序列化组织规则失败: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, admin_id, settings, share_link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.AdminID, settingsJSON, org.ShareLink, org.CreatedAt, org.UpdatedAt,
	); err != nil {
		return fmt.Errorf("创建组织失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取组织
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, name, admin_id, settings, share_link, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	return r.scanOrganization(r.db.QueryRowContext(ctx, query, id))
}

// GetByShareLink 根据分享链接获取组织
func (r *OrganizationRepository) GetByShareLink(ctx context.Context, shareLink string) (*model.Organization, error) {
	query := `
		SELECT id, name, admin_id, settings, share_link, created_at, updated_at
		FROM organizations
		WHERE share_link = $1
	`
	return r.scanOrganization(r.db.QueryRowContext(ctx, query, shareLink))
}

// Update 更新组织
func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	org.UpdatedAt = time.Now()

	settingsJSON, err := json.Marshal(org.Settings)
	if err != nil {
		return fmt.Errorf("序列化组织规则失败: %w", err)
	}

	query := `
		UPDATE organizations
		SET name = $2, settings = $3, share_link = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, settingsJSON, org.ShareLink, org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新组织失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("组织", org.ID.String())
	}
	return nil
}

// Delete 删除组织
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除组织失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("组织", id.String())
	}
	return nil
}

// scanOrganization 扫描单行组织记录
func (r *OrganizationRepository) scanOrganization(row Scanner) (*model.Organization, error) {
	var org model.Organization
	var settingsJSON []byte

	err := row.Scan(
		&org.ID, &org.Name, &org.AdminID, &settingsJSON, &org.ShareLink,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("组织", "unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("查询组织失败: %w", err)
	}

	if err := json.Unmarshal(settingsJSON, &org.Settings); err != nil {
		return nil, fmt.Errorf("解析组织规则失败: %w", err)
	}
	return &org, nil
}
