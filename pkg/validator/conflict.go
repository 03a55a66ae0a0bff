// Package validator 提供整月排班的规则审计功能
// 与逐次校验不同，审计对已有排班（含手工修改后的排班）做全量合规检查
package validator

import (
	"fmt"
	"sort"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
	"github.com/google/uuid"
)

// Conflict 审计发现的规则冲突
type Conflict struct {
	NurseID uuid.UUID `json:"nurse_id"`
	Name    string    `json:"name"`
	Date    string    `json:"date"`
	Shift   string    `json:"shift"`
	Rule    string    `json:"rule"`
	Message string    `json:"message"`
}

// AuditReport 审计报告
type AuditReport struct {
	Checked   int        `json:"checked"` // 检查的班位数
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Clean 检查审计是否未发现任何冲突
func (r *AuditReport) Clean() bool {
	return len(r.Conflicts) == 0
}

// Auditor 排班审计器
type Auditor struct {
	validator *rules.Validator
}

// NewAuditor 创建审计器
func NewAuditor(settings *model.OrganizationSettings) *Auditor {
	return &Auditor{validator: rules.NewValidator(settings)}
}

// Audit 审计整月排班
// 按日期升序逐日检查每名护士的工作班次是否满足全部规则。
// 规则校验只回溯历史班次，因此对完整排班逐日校验
// 等价于重放每一次排班决定
func (a *Auditor) Audit(nurses []*model.Nurse, assignments model.AssignmentMap) *AuditReport {
	report := &AuditReport{}

	byID := make(map[uuid.UUID]*model.Nurse, len(nurses))
	for _, n := range nurses {
		byID[n.ID] = n
	}

	dates := make([]string, 0, len(assignments))
	for date := range assignments {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		da := assignments[date]
		for _, shift := range model.WorkShiftTypes {
			for _, id := range da.List(shift) {
				nurse, ok := byID[id]
				if !ok {
					report.Conflicts = append(report.Conflicts, Conflict{
						NurseID: id,
						Date:    date,
						Shift:   string(shift),
						Rule:    "unknownNurse",
						Message: fmt.Sprintf("%s 的 %s 班次包含未知护士 %s", date, shift, id),
					})
					continue
				}

				report.Checked++
				if result := a.validator.Validate(nurse, date, shift, assignments); !result.Valid {
					report.Conflicts = append(report.Conflicts, Conflict{
						NurseID: id,
						Name:    nurse.Name,
						Date:    date,
						Shift:   string(shift),
						Rule:    result.ViolatedRule,
						Message: result.Reason,
					})
				}
			}
		}
	}

	return report
}
