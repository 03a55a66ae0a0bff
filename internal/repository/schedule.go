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

// ScheduleRepository 排班表仓储
// assignments/statistics/violations 以 JSONB 存储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班表仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 保存一份新排班表（草稿状态）
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	if schedule.Status == "" {
		schedule.Status = model.StatusDraft
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	assignmentsJSON, statisticsJSON, violationsJSON, err := marshalSchedulePayload(schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedules (id, org_id, year_month, assignments, statistics, violations,
			fairness_index, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.OrgID, schedule.YearMonth,
		assignmentsJSON, statisticsJSON, violationsJSON,
		schedule.FairnessIndex, schedule.Status, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("保存排班表失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取排班表
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	query := scheduleSelect + ` WHERE id = $1`
	return r.scanSchedule(r.db.QueryRowContext(ctx, query, id))
}

// GetByYearMonth 获取组织某年月最新的排班表
func (r *ScheduleRepository) GetByYearMonth(ctx context.Context, orgID uuid.UUID, yearMonth string) (*model.Schedule, error) {
	query := scheduleSelect + `
		WHERE org_id = $1 AND year_month = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanSchedule(r.db.QueryRowContext(ctx, query, orgID, yearMonth))
}

// List 列出排班表
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*model.Schedule, int, error) {
	where := "WHERE 1=1"
	var args []interface{}

	if filter.OrgID != nil {
		args = append(args, *filter.OrgID)
		where += " AND org_id = $" + strconv.Itoa(len(args))
	}
	if filter.YearMonth != "" {
		args = append(args, filter.YearMonth)
		where += " AND year_month = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排班表数量失败: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`%s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		scheduleSelect, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班表列表失败: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, total, rows.Err()
}

// Update 更新排班表内容（仅限草稿）
func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	schedule.UpdatedAt = time.Now()

	assignmentsJSON, statisticsJSON, violationsJSON, err := marshalSchedulePayload(schedule)
	if err != nil {
		return err
	}

	query := `
		UPDATE schedules
		SET assignments = $2, statistics = $3, violations = $4, fairness_index = $5, updated_at = $6
		WHERE id = $1 AND status = 'draft'
	`
	result, err := r.db.ExecContext(ctx, query,
		schedule.ID, assignmentsJSON, statisticsJSON, violationsJSON,
		schedule.FairnessIndex, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新排班表失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.New(errors.CodeScheduleConflict, "排班表不存在或已发布，无法修改")
	}
	return nil
}

// Publish 将草稿排班表发布
// 仅允许 draft → published 单向转换
func (r *ScheduleRepository) Publish(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE schedules
		SET status = 'published', updated_at = $2
		WHERE id = $1 AND status = 'draft'
	`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("发布排班表失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.New(errors.CodeScheduleConflict, "排班表不存在或已发布")
	}
	return nil
}

// Delete 删除排班表
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除排班表失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("排班表", id.String())
	}
	return nil
}

const scheduleSelect = `
	SELECT id, org_id, year_month, assignments, statistics, violations,
		fairness_index, status, created_at, updated_at
	FROM schedules
`

// marshalSchedulePayload 序列化排班表的 JSONB 字段
func marshalSchedulePayload(schedule *model.Schedule) (assignments, statistics, violations []byte, err error) {
	if assignments, err = json.Marshal(schedule.Assignments); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化排班数据失败: %w", err)
	}
	if statistics, err = json.Marshal(schedule.Statistics); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化统计数据失败: %w", err)
	}
	if violations, err = json.Marshal(schedule.Violations); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化违规记录失败: %w", err)
	}
	return assignments, statistics, violations, nil
}

// scanSchedule 扫描单行排班表记录
func (r *ScheduleRepository) scanSchedule(row Scanner) (*model.Schedule, error) {
	var schedule model.Schedule
	var assignmentsJSON, statisticsJSON, violationsJSON []byte

	err := row.Scan(
		&schedule.ID, &schedule.OrgID, &schedule.YearMonth,
		&assignmentsJSON, &statisticsJSON, &violationsJSON,
		&schedule.FairnessIndex, &schedule.Status, &schedule.CreatedAt, &schedule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("排班表", "unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("查询排班表失败: %w", err)
	}

	if err := json.Unmarshal(assignmentsJSON, &schedule.Assignments); err != nil {
		return nil, fmt.Errorf("解析排班数据失败: %w", err)
	}
	if err := json.Unmarshal(statisticsJSON, &schedule.Statistics); err != nil {
		return nil, fmt.Errorf("解析统计数据失败: %w", err)
	}
	if err := json.Unmarshal(violationsJSON, &schedule.Violations); err != nil {
		return nil, fmt.Errorf("解析违规记录失败: %w", err)
	}
	return &schedule, nil
}
