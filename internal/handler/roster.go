package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/banbiao/banbiao/internal/config"
	"github.com/banbiao/banbiao/internal/holiday"
	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/generator"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
	"github.com/banbiao/banbiao/pkg/scheduler/selector"
	"github.com/banbiao/banbiao/pkg/stats"
	"github.com/banbiao/banbiao/pkg/validator"
	"github.com/google/uuid"
)

// RosterHandler 排班处理器
// 仓储均可为 nil：无数据库时仅计算不落库，护士与规则必须随请求提供
type RosterHandler struct {
	cfg       config.SchedulerConfig
	holidays  *holiday.Service
	schedules *repository.ScheduleRepository
	orgs      *repository.OrganizationRepository
	nurses    *repository.NurseRepository
}

// NewRosterHandler 创建排班处理器
func NewRosterHandler(
	cfg config.SchedulerConfig,
	holidays *holiday.Service,
	schedules *repository.ScheduleRepository,
	orgs *repository.OrganizationRepository,
	nurses *repository.NurseRepository,
) *RosterHandler {
	return &RosterHandler{cfg: cfg, holidays: holidays, schedules: schedules, orgs: orgs, nurses: nurses}
}

// NurseInput 护士输入
type NurseInput struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	YearsOfExperience int                 `json:"years_of_experience"`
	PersonalRules     model.PersonalRules `json:"personal_rules"`
	Status            string              `json:"status,omitempty"`
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	OrgID     string                      `json:"org_id"`
	YearMonth string                      `json:"year_month"` // YYYY-MM
	Nurses    []NurseInput                `json:"nurses"`
	Settings  *model.OrganizationSettings `json:"settings,omitempty"`
	Options   *GenerateOptions            `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Passes           int   `json:"passes,omitempty"`
	Seed             int64 `json:"seed,omitempty"`
	TimeoutSeconds   int   `json:"timeout_seconds,omitempty"`
	DisableOffBlocks bool  `json:"disable_off_blocks,omitempty"`
	Save             bool  `json:"save,omitempty"` // 保存为草稿排班表
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success       bool                                 `json:"success"`
	ScheduleID    string                               `json:"schedule_id,omitempty"`
	YearMonth     string                               `json:"year_month"`
	Assignments   model.AssignmentMap                  `json:"assignments"`
	Statistics    map[uuid.UUID]*model.NurseStatistics `json:"statistics"`
	Violations    []model.Violation                    `json:"violations"`
	FairnessIndex float64                              `json:"fairness_index"`
	Coverage      *stats.CoverageReport                `json:"coverage"`
	PassIndex     int                                  `json:"pass_index"`
	Passes        int                                  `json:"passes"`
	Duration      string                               `json:"duration"`
}

// Generate 生成月度排班
func (h *RosterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	// 请求未携带护士名单时从数据库加载组织内的在职护士
	var nurses []*model.Nurse
	if len(req.Nurses) > 0 {
		var appErr *errors.AppError
		nurses, appErr = buildNurses(req.Nurses)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
	} else {
		if h.nurses == nil {
			respondError(w, errors.InvalidInput("nurses", "至少需要一名护士"))
			return
		}
		nurses, err = h.nurses.ListActiveByOrg(r.Context(), orgID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询在职护士失败"))
			return
		}
		if len(nurses) == 0 {
			respondError(w, errors.InvalidInput("nurses", "组织内没有在职护士"))
			return
		}
	}

	settings := req.Settings
	if settings == nil && h.orgs != nil {
		// 未提供规则时沿用组织配置
		if org, orgErr := h.orgs.GetByID(r.Context(), orgID); orgErr == nil {
			settings = &org.Settings
		}
	}
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	holidaySet, err := h.holidays.SetForMonth(r.Context(), req.YearMonth)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidYearMonth, "无效的年月"))
		return
	}

	options := selector.Options{
		Passes:  h.cfg.Passes,
		Workers: h.cfg.Workers,
		Seed:    h.cfg.Seed,
	}
	timeout := h.cfg.Timeout
	if req.Options != nil {
		if req.Options.Passes > 0 {
			options.Passes = req.Options.Passes
		}
		if req.Options.Seed != 0 {
			options.Seed = req.Options.Seed
		}
		if req.Options.TimeoutSeconds > 0 {
			timeout = time.Duration(req.Options.TimeoutSeconds) * time.Second
		}
		options.Generator.DisableOffBlocks = req.Options.DisableOffBlocks
	}
	if options.Seed == 0 {
		options.Seed = time.Now().UnixNano()
	}

	ctx := r.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	input := generator.Input{
		OrgID:     orgID,
		YearMonth: req.YearMonth,
		Nurses:    nurses,
		Settings:  settings,
		Holidays:  holidaySet,
	}

	start := time.Now()
	best, err := selector.NewSelector(options).Run(ctx, input)
	metrics.RecordGeneration(err == nil, time.Since(start))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "排班计算超时"))
			return
		}
		respondError(w, errors.Wrap(err, errors.CodeInternal, "排班生成失败"))
		return
	}

	days, _ := model.DaysInMonth(req.YearMonth)
	coverage := stats.AnalyzeCoverage(nurses, days, best.Assignments, settings)

	metrics.SetFairnessIndex(orgID.String(), best.FairnessIndex)
	metrics.SetCoverageFillRate(orgID.String(), coverage.FillRate)
	for _, v := range best.Violations {
		metrics.RecordRuleViolation(v.Rule)
	}

	resp := GenerateResponse{
		Success:       true,
		YearMonth:     req.YearMonth,
		Assignments:   best.Assignments,
		Statistics:    best.Statistics,
		Violations:    best.Violations,
		FairnessIndex: best.FairnessIndex,
		Coverage:      coverage,
		PassIndex:     best.PassIndex,
		Passes:        best.Passes,
		Duration:      best.Duration.String(),
	}

	if req.Options != nil && req.Options.Save {
		if h.schedules == nil {
			respondError(w, errors.New(errors.CodeDatabaseError, "数据库未配置，无法保存排班表"))
			return
		}
		schedule := &model.Schedule{
			OrgID:         orgID,
			YearMonth:     req.YearMonth,
			Assignments:   best.Assignments,
			Statistics:    best.Statistics,
			Violations:    best.Violations,
			FairnessIndex: best.FairnessIndex,
			Status:        model.StatusDraft,
		}
		if err := h.schedules.Create(r.Context(), schedule); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班表失败"))
			return
		}
		resp.ScheduleID = schedule.ID.String()
	}

	respondJSON(w, http.StatusOK, resp)
}

// ValidateRequest 排班校验请求
type ValidateRequest struct {
	Nurse       NurseInput                  `json:"nurse"`
	Date        string                      `json:"date"` // YYYY-MM-DD
	Shift       model.ShiftType             `json:"shift"`
	Settings    *model.OrganizationSettings `json:"settings,omitempty"`
	Assignments model.AssignmentMap         `json:"assignments"`
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	Valid        bool   `json:"valid"`
	ViolatedRule string `json:"violated_rule,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Validate 校验单个候选排班是否合规
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if !req.Shift.Valid() {
		respondError(w, errors.InvalidInput("shift", "未知的班次类型"))
		return
	}

	nurses, appErr := buildNurses([]NurseInput{req.Nurse})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	settings := req.Settings
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	result := rules.NewValidator(settings).Validate(nurses[0], req.Date, req.Shift, req.Assignments)
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:        result.Valid,
		ViolatedRule: result.ViolatedRule,
		Reason:       result.Reason,
	})
}

// Publish 发布草稿排班表
func (h *RosterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.schedules == nil {
		respondError(w, errors.New(errors.CodeDatabaseError, "数据库未配置"))
		return
	}

	var req struct {
		ScheduleID string `json:"schedule_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	id, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID格式"))
		return
	}

	if err := h.schedules.Publish(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "schedule_id": req.ScheduleID})
}

// GetSchedule 获取排班表，支持按ID或组织+年月查询
func (h *RosterHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if h.schedules == nil {
		respondError(w, errNoDatabase())
		return
	}

	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID格式"))
			return
		}
		schedule, err := h.schedules.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, schedule)
		return
	}

	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}
	yearMonth := r.URL.Query().Get("year_month")
	if _, err := model.ParseYearMonth(yearMonth); err != nil {
		respondError(w, errors.New(errors.CodeInvalidYearMonth, "年月格式应为 YYYY-MM"))
		return
	}

	schedule, err := h.schedules.GetByYearMonth(r.Context(), orgID, yearMonth)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// ListSchedules 列出排班表，支持组织、年月与状态筛选
func (h *RosterHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if h.schedules == nil {
		respondError(w, errNoDatabase())
		return
	}

	filter := repository.DefaultListFilter()
	if idStr := r.URL.Query().Get("org_id"); idStr != "" {
		orgID, err := uuid.Parse(idStr)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
			return
		}
		filter = filter.WithOrgID(orgID)
	}
	if ym := r.URL.Query().Get("year_month"); ym != "" {
		filter = filter.WithYearMonth(ym)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ := strconv.Atoi(v)
		filter = filter.WithOffset(offset)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ := strconv.Atoi(v)
		filter = filter.WithLimit(limit)
	}

	schedules, total, err := h.schedules.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班表列表失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"total":     total,
		"offset":    filter.Offset,
		"limit":     filter.Limit,
	})
}

// UpdateDraftRequest 草稿排班更新请求
type UpdateDraftRequest struct {
	ScheduleID  string                      `json:"schedule_id"`
	Nurses      []NurseInput                `json:"nurses"`
	Settings    *model.OrganizationSettings `json:"settings,omitempty"`
	Assignments model.AssignmentMap         `json:"assignments"`
}

// UpdateDraft 更新草稿排班表的排班内容
// 手工编辑后重建统计、重算公平性并重新审计违规，已发布的排班表不可修改
func (h *RosterHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.schedules == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID格式"))
		return
	}
	if len(req.Nurses) == 0 {
		respondError(w, errors.InvalidInput("nurses", "至少需要一名护士"))
		return
	}
	if len(req.Assignments) == 0 {
		respondError(w, errors.InvalidInput("assignments", "不能为空"))
		return
	}

	nurses, appErr := buildNurses(req.Nurses)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	settings := req.Settings
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	holidaySet, err := h.holidays.SetForMonth(r.Context(), schedule.YearMonth)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidYearMonth, "无效的年月"))
		return
	}
	days, _ := model.DaysInMonth(schedule.YearMonth)

	schedule.Assignments = req.Assignments
	schedule.Statistics = stats.BuildStatistics(nurses, days, req.Assignments, settings, holidaySet)
	schedule.FairnessIndex = stats.CalculateOverallFairness(schedule.Statistics).FairnessIndex

	// 手工修改可能引入新的违规，整月重新审计
	audit := validator.NewAuditor(settings).Audit(nurses, req.Assignments)
	schedule.Violations = schedule.Violations[:0]
	for _, c := range audit.Conflicts {
		schedule.Violations = append(schedule.Violations, model.Violation{
			NurseID: c.NurseID,
			Date:    c.Date,
			Rule:    c.Rule,
			Reason:  c.Message,
		})
	}

	if err := h.schedules.Update(r.Context(), schedule); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// DeleteSchedule 删除排班表
func (h *RosterHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.schedules == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req struct {
		ScheduleID string `json:"schedule_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID格式"))
		return
	}
	if err := h.schedules.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "schedule_id": req.ScheduleID})
}

// validateGenerateRequest 校验生成请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	if req.OrgID == "" {
		return errors.InvalidInput("org_id", "不能为空")
	}
	if _, err := model.ParseYearMonth(req.YearMonth); err != nil {
		return errors.New(errors.CodeInvalidYearMonth, "年月格式应为 YYYY-MM")
	}
	return nil
}

// buildNurses 将输入转换为护士模型
func buildNurses(inputs []NurseInput) ([]*model.Nurse, *errors.AppError) {
	nurses := make([]*model.Nurse, len(inputs))
	for i, in := range inputs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, errors.InvalidInput("nurses", "无效的护士ID格式: "+in.ID)
		}
		status := in.Status
		if status == "" {
			status = "active"
		}
		nurses[i] = &model.Nurse{
			ID:                id,
			Name:              in.Name,
			YearsOfExperience: in.YearsOfExperience,
			PersonalRules:     in.PersonalRules,
			Status:            status,
		}
	}
	return nurses, nil
}
