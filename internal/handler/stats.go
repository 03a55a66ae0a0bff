package handler

import (
	"encoding/json"
	"net/http"

	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/stats"
	"github.com/google/uuid"
)

// StatsHandler 统计分析处理器
type StatsHandler struct{}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// FairnessRequest 公平性分析请求
type FairnessRequest struct {
	Statistics map[uuid.UUID]*model.NurseStatistics `json:"statistics"`
}

// FairnessResponse 公平性分析响应
type FairnessResponse struct {
	Overall stats.OverallFairness `json:"overall"`
	Ranks   []stats.FairnessRank  `json:"ranks"`
}

// Fairness 公平性分析
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req FairnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Statistics) == 0 {
		respondError(w, errors.InvalidInput("statistics", "不能为空"))
		return
	}

	respondJSON(w, http.StatusOK, FairnessResponse{
		Overall: stats.CalculateOverallFairness(req.Statistics),
		Ranks:   stats.RankByFairness(req.Statistics),
	})
}

// CoverageRequest 覆盖分析请求
type CoverageRequest struct {
	YearMonth   string                      `json:"year_month"`
	Nurses      []NurseInput                `json:"nurses"`
	Settings    *model.OrganizationSettings `json:"settings,omitempty"`
	Assignments model.AssignmentMap         `json:"assignments"`
}

// Coverage 覆盖分析
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	days, err := model.DaysInMonth(req.YearMonth)
	if err != nil {
		respondError(w, errors.New(errors.CodeInvalidYearMonth, "年月格式应为 YYYY-MM"))
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

	respondJSON(w, http.StatusOK, stats.AnalyzeCoverage(nurses, days, req.Assignments, settings))
}

// ChargeDistributionRequest 责任组长班分布分析请求
type ChargeDistributionRequest struct {
	Statistics map[uuid.UUID]*model.NurseStatistics `json:"statistics"`
}

// ChargeDistribution 责任组长班分布分析
func (h *StatsHandler) ChargeDistribution(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ChargeDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	respondJSON(w, http.StatusOK, stats.AnalyzeChargeDistribution(req.Statistics))
}
