package handler

import (
	"encoding/json"
	"net/http"

	"github.com/banbiao/banbiao/internal/constraints"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/validator"
)

// RuleLibrary 返回引擎支持的全部排班规则定义
func RuleLibrary(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.GetLibrary()})
}

// AuditRequest 排班审计请求
type AuditRequest struct {
	Nurses      []NurseInput                `json:"nurses"`
	Settings    *model.OrganizationSettings `json:"settings,omitempty"`
	Assignments model.AssignmentMap         `json:"assignments"`
}

// Audit 审计整月排班的规则合规性
// 用于手工修改后的排班复查
func Audit(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Nurses) == 0 {
		respondError(w, errors.InvalidInput("nurses", "至少需要一名护士"))
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

	respondJSON(w, http.StatusOK, validator.NewAuditor(settings).Audit(nurses, req.Assignments))
}
