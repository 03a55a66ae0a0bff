// Package stats 提供排班统计分析功能
package stats

import (
	"fmt"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// CoverageIssue 覆盖问题
type CoverageIssue struct {
	Date    string    `json:"date"`
	NurseID uuid.UUID `json:"nurse_id,omitempty"`
	Shift   string    `json:"shift,omitempty"`
	Kind    string    `json:"kind"` // missing/duplicate/understaffed
	Message string    `json:"message"`
}

// CoverageReport 覆盖分析报告
type CoverageReport struct {
	TotalSlots  int             `json:"total_slots"`  // 月内全部班次槽位
	FilledSlots int             `json:"filled_slots"` // 已填充槽位
	FillRate    float64         `json:"fill_rate"`    // 填充率（百分比）
	Issues      []CoverageIssue `json:"issues,omitempty"`
}

// Complete 检查排班是否覆盖完整且无问题
func (r *CoverageReport) Complete() bool {
	return len(r.Issues) == 0
}

// AnalyzeCoverage 分析月度排班的覆盖情况
// 校验核心不变式：每名护士每日恰好出现在一个班次列表中；
// 同时按组织配置统计各班次槽位的填充率
func AnalyzeCoverage(nurses []*model.Nurse, days []string, assignments model.AssignmentMap, settings *model.OrganizationSettings) *CoverageReport {
	report := &CoverageReport{}

	for _, date := range days {
		da, ok := assignments[date]
		if !ok {
			report.Issues = append(report.Issues, CoverageIssue{
				Date:    date,
				Kind:    "missing",
				Message: fmt.Sprintf("日期 %s 没有排班记录", date),
			})
			continue
		}

		// 每名护士当日恰好出现一次
		seen := make(map[uuid.UUID]int)
		for _, shift := range model.AllShiftTypes {
			for _, id := range da.List(shift) {
				seen[id]++
			}
		}
		for _, nurse := range nurses {
			switch seen[nurse.ID] {
			case 0:
				report.Issues = append(report.Issues, CoverageIssue{
					Date:    date,
					NurseID: nurse.ID,
					Kind:    "missing",
					Message: fmt.Sprintf("护士 %s 在 %s 未出现在任何班次列表", nurse.Name, date),
				})
			case 1:
				// 正常
			default:
				report.Issues = append(report.Issues, CoverageIssue{
					Date:    date,
					NurseID: nurse.ID,
					Kind:    "duplicate",
					Message: fmt.Sprintf("护士 %s 在 %s 出现在多个班次列表", nurse.Name, date),
				})
			}
		}

		// 各工作班次的槽位填充
		for _, shift := range model.WorkShiftTypes {
			required := settings.RequiredCount(shift)
			assigned := len(da.List(shift))

			report.TotalSlots += required
			if assigned >= required {
				report.FilledSlots += required
			} else {
				report.FilledSlots += assigned
				report.Issues = append(report.Issues, CoverageIssue{
					Date:    date,
					Shift:   string(shift),
					Kind:    "understaffed",
					Message: fmt.Sprintf("%s 的 %s 班次仅 %d/%d 人", date, shift, assigned, required),
				})
			}
		}
	}

	if report.TotalSlots > 0 {
		report.FillRate = round1(float64(report.FilledSlots) / float64(report.TotalSlots) * 100)
	}

	return report
}
