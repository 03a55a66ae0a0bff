package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// SwapRequestRepository 换班请求仓储
type SwapRequestRepository struct {
	db DB
}

// NewSwapRequestRepository 创建换班请求仓储
func NewSwapRequestRepository(db DB) *SwapRequestRepository {
	return &SwapRequestRepository{db: db}
}

// Create 创建换班请求
func (r *SwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = model.SwapPending
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO swap_requests (id, org_id, requester_id, target_id,
			requester_date, requester_shift, target_date, target_shift,
			status, requires_admin_approval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.db.ExecContext(ctx, query,
		req.ID, req.OrgID, req.RequesterID, req.TargetID,
		req.RequesterShift.Date, req.RequesterShift.Type,
		req.TargetShift.Date, req.TargetShift.Type,
		req.Status, req.RequiresAdminApproval, req.CreatedAt, req.UpdatedAt,
	); err != nil {
		return fmt.Errorf("创建换班请求失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取换班请求
func (r *SwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := swapSelect + ` WHERE id = $1`
	return r.scanSwapRequest(r.db.QueryRowContext(ctx, query, id))
}

// ListPendingByOrg 列出组织内待处理的换班请求
func (r *SwapRequestRepository) ListPendingByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.SwapRequest, error) {
	query := swapSelect + `
		WHERE org_id = $1 AND status IN ('pending', 'admin_review')
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询换班请求失败: %w", err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		req, err := r.scanSwapRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus 更新换班请求状态
// 仅允许从 pending/admin_review 状态流转
func (r *SwapRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SwapRequestStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'admin_review')
	`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新换班请求状态失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.New(errors.CodeSwapNotAllowed, "换班请求不存在或已处理")
	}
	return nil
}

const swapSelect = `
	SELECT id, org_id, requester_id, target_id,
		requester_date, requester_shift, target_date, target_shift,
		status, requires_admin_approval, created_at, updated_at
	FROM swap_requests
`

// scanSwapRequest 扫描单行换班请求记录
func (r *SwapRequestRepository) scanSwapRequest(row Scanner) (*model.SwapRequest, error) {
	var req model.SwapRequest

	err := row.Scan(
		&req.ID, &req.OrgID, &req.RequesterID, &req.TargetID,
		&req.RequesterShift.Date, &req.RequesterShift.Type,
		&req.TargetShift.Date, &req.TargetShift.Type,
		&req.Status, &req.RequiresAdminApproval, &req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("换班请求", "unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("查询换班请求失败: %w", err)
	}
	return &req, nil
}
