package handler

import (
	"encoding/json"
	"net/http"

	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/swap"
	"github.com/google/uuid"
)

// SwapHandler 换班处理器
type SwapHandler struct {
	swaps *repository.SwapRequestRepository // 可为 nil：无数据库时仅评估不落库
}

// NewSwapHandler 创建换班处理器
func NewSwapHandler(swaps *repository.SwapRequestRepository) *SwapHandler {
	return &SwapHandler{swaps: swaps}
}

// EvaluateRequest 换班评估请求
type EvaluateRequest struct {
	Requester      NurseInput                  `json:"requester"`
	Target         NurseInput                  `json:"target"`
	RequesterShift model.SwapShift             `json:"requester_shift"`
	TargetShift    model.SwapShift             `json:"target_shift"`
	Settings       *model.OrganizationSettings `json:"settings,omitempty"`
	Assignments    model.AssignmentMap         `json:"assignments"`
}

// Evaluate 评估换班可行性
func (h *SwapHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	nurses, appErr := buildNurses([]NurseInput{req.Requester, req.Target})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	settings := req.Settings
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	swapReq := &model.SwapRequest{
		RequesterID:    nurses[0].ID,
		TargetID:       nurses[1].ID,
		RequesterShift: req.RequesterShift,
		TargetShift:    req.TargetShift,
	}

	eval := swap.NewEvaluator(settings).Evaluate(nurses[0], nurses[1], swapReq, req.Assignments)

	status := "feasible"
	if !eval.Feasible {
		status = "infeasible"
	}
	metrics.RecordSwapRequest(status)

	respondJSON(w, http.StatusOK, eval)
}

// SubmitRequest 提交换班请求
type SubmitRequest struct {
	OrgID string `json:"org_id"`
	EvaluateRequest
}

// Submit 评估并登记换班请求
// 评估通过后落库：需要管理员审批的进入 admin_review，否则进入 pending
func (h *SwapHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.swaps == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	nurses, appErr := buildNurses([]NurseInput{req.Requester, req.Target})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	settings := req.Settings
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	swapReq := &model.SwapRequest{
		OrgID:          orgID,
		RequesterID:    nurses[0].ID,
		TargetID:       nurses[1].ID,
		RequesterShift: req.RequesterShift,
		TargetShift:    req.TargetShift,
	}

	eval := swap.NewEvaluator(settings).Evaluate(nurses[0], nurses[1], swapReq, req.Assignments)
	if !eval.Feasible {
		metrics.RecordSwapRequest("infeasible")
		respondJSON(w, http.StatusOK, map[string]interface{}{"saved": false, "evaluation": eval})
		return
	}

	swapReq.RequiresAdminApproval = eval.RequiresAdminApproval
	swapReq.Status = model.SwapPending
	if eval.RequiresAdminApproval {
		swapReq.Status = model.SwapAdminReview
	}
	if err := h.swaps.Create(r.Context(), swapReq); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "登记换班请求失败"))
		return
	}
	metrics.RecordSwapRequest(string(swapReq.Status))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":      true,
		"request":    swapReq,
		"evaluation": eval,
	})
}

// Pending 列出组织内待处理的换班请求
func (h *SwapHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if h.swaps == nil {
		respondError(w, errNoDatabase())
		return
	}

	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	requests, err := h.swaps.ListPendingByOrg(r.Context(), orgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询换班请求失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// DecideRequest 换班审批请求
type DecideRequest struct {
	RequestID string `json:"request_id"`
	Approve   bool   `json:"approve"`
}

// Decide 审批换班请求，仅 pending/admin_review 状态可流转
func (h *SwapHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.swaps == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.RequestID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的换班请求ID格式"))
		return
	}

	status := model.SwapRejected
	if req.Approve {
		status = model.SwapApproved
	}
	if err := h.swaps.UpdateStatus(r.Context(), id, status); err != nil {
		respondError(w, err)
		return
	}
	metrics.RecordSwapRequest(string(status))

	updated, err := h.swaps.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "request": updated})
}

// RecommendRequest 接班推荐请求
type RecommendRequest struct {
	Nurses      []NurseInput                         `json:"nurses"`
	Slot        model.SwapShift                      `json:"slot"`
	Settings    *model.OrganizationSettings          `json:"settings,omitempty"`
	Assignments model.AssignmentMap                  `json:"assignments"`
	Statistics  map[uuid.UUID]*model.NurseStatistics `json:"statistics,omitempty"`
	MaxResults  int                                  `json:"max_results,omitempty"`
	Exclude     []uuid.UUID                          `json:"exclude,omitempty"`
}

// Recommend 推荐接班人选
func (h *SwapHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if !req.Slot.Type.Valid() || req.Slot.Type == model.ShiftOff {
		respondError(w, errors.InvalidInput("slot", "需要一个工作班次"))
		return
	}

	nurses, appErr := buildNurses(req.Nurses)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	settings := req.Settings
	if settings == nil {
		s := model.DefaultSettings()
		settings = &s
	}

	options := swap.DefaultRecommendOptions()
	if req.MaxResults > 0 {
		options.MaxRecommendations = req.MaxResults
	}
	options.Exclude = req.Exclude

	recs := swap.NewRecommender(settings).RecommendTargets(nurses, req.Slot, req.Assignments, req.Statistics, options)
	respondJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}
