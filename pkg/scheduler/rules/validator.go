// Package rules 提供排班规则校验器
package rules

import (
	"fmt"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// 规则标识符：对外序列化时保持稳定
const (
	RuleVacation                = "vacation"
	RuleSelectedShifts          = "selectedShifts"
	RuleChargeMinYears          = "chargeMinYears"
	RuleMaxConsecutiveWorkDays  = "maxConsecutiveWorkDays"
	RuleMaxConsecutiveNightDays = "maxConsecutiveNightDays"
	RuleForbiddenTransition     = "forbiddenTransition"
	RuleProhibitNOD             = "prohibitNOD"
	RuleProhibitEOD             = "prohibitEOD"
	RuleUnderstaffed            = "understaffed"
)

// lookbackDays 连续天数统计的回溯窗口上限
const lookbackDays = 10

// Result 校验结果
type Result struct {
	Valid        bool   `json:"valid"`
	ViolatedRule string `json:"violated_rule,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Validator 排班规则校验器
// 纯谓词：不修改任何输入
type Validator struct {
	settings *model.OrganizationSettings
}

// NewValidator 创建规则校验器
func NewValidator(settings *model.OrganizationSettings) *Validator {
	return &Validator{settings: settings}
}

// Validate 校验一次候选排班是否合法
// 按固定顺序检查，首个失败即返回
func (v *Validator) Validate(nurse *model.Nurse, date string, shift model.ShiftType, assignments model.AssignmentMap) Result {
	// 1. 休假
	if nurse.OnVacation(date) {
		return Result{
			Valid:        false,
			ViolatedRule: RuleVacation,
			Reason:       "该日期已申请休假",
		}
	}

	// 2. 选择性排班（charge 豁免）
	if !nurse.AllowsShift(shift) {
		return Result{
			Valid:        false,
			ViolatedRule: RuleSelectedShifts,
			Reason:       "班次类型不在选择性排班范围内",
		}
	}

	// 3. 责任组长班资格
	if shift == model.ShiftCharge {
		if nurse.YearsOfExperience < v.settings.ChargeSettings.MinYearsRequired {
			return Result{
				Valid:        false,
				ViolatedRule: RuleChargeMinYears,
				Reason: fmt.Sprintf("未满足责任组长班最低年资要求(%d年)",
					v.settings.ChargeSettings.MinYearsRequired),
			}
		}
	}

	// 4. 最大连续工作天数
	if consecutive := consecutiveWorkDays(nurse.ID, date, assignments); consecutive >= v.settings.MaxConsecutiveWorkDays {
		return Result{
			Valid:        false,
			ViolatedRule: RuleMaxConsecutiveWorkDays,
			Reason: fmt.Sprintf("超过最大连续工作天数(%d天)",
				v.settings.MaxConsecutiveWorkDays),
		}
	}

	// 5. 最大连续 Night/Charge 天数
	if shift == model.ShiftNight || shift == model.ShiftCharge {
		if consecutive := consecutiveNightChargeDays(nurse.ID, date, assignments); consecutive >= v.settings.MaxConsecutiveNightDays {
			return Result{
				Valid:        false,
				ViolatedRule: RuleMaxConsecutiveNightDays,
				Reason: fmt.Sprintf("超过最大连续Night/Charge天数(%d天)",
					v.settings.MaxConsecutiveNightDays),
			}
		}
	}

	// 6. 禁止的班次衔接
	if result := CheckTransition(nurse.ID, date, shift, assignments); !result.Valid {
		return result
	}

	// 7. NOD (Night-Off-Day) 禁止模式
	if v.settings.ProhibitNOD && shift == model.ShiftDay {
		if isPattern(nurse.ID, date, model.ShiftNight, assignments) {
			return Result{
				Valid:        false,
				ViolatedRule: RuleProhibitNOD,
				Reason:       "Night-Off-Day 模式已被禁止",
			}
		}
	}

	// 8. EOD (Evening-Off-Day) 禁止模式
	if v.settings.ProhibitEOD && shift == model.ShiftDay {
		if isPattern(nurse.ID, date, model.ShiftEvening, assignments) {
			return Result{
				Valid:        false,
				ViolatedRule: RuleProhibitEOD,
				Reason:       "Evening-Off-Day 模式已被禁止",
			}
		}
	}

	return Result{Valid: true}
}

// consecutiveWorkDays 统计从 date 向前回溯的连续工作天数
// 遇到非工作日或缺失记录即停止，窗口上限 lookbackDays
func consecutiveWorkDays(nurseID uuid.UUID, date string, assignments model.AssignmentMap) int {
	count := 0
	current := date

	for i := 0; i < lookbackDays; i++ {
		current = model.PrevDate(current)
		da, ok := assignments[current]
		if !ok {
			break
		}

		shift, assigned := da.ShiftOf(nurseID)
		if !assigned || !shift.IsWork() {
			break
		}
		count++
	}

	return count
}

// consecutiveNightChargeDays 统计从 date 向前回溯的连续 Night/Charge 天数
func consecutiveNightChargeDays(nurseID uuid.UUID, date string, assignments model.AssignmentMap) int {
	count := 0
	current := date

	for i := 0; i < lookbackDays; i++ {
		current = model.PrevDate(current)
		da, ok := assignments[current]
		if !ok {
			break
		}

		shift, assigned := da.ShiftOf(nurseID)
		if !assigned || (shift != model.ShiftNight && shift != model.ShiftCharge) {
			break
		}
		count++
	}

	return count
}

// isPattern 检查 X-Off-Day 三日疲劳模式：
// 前两日为 firstShift 且前一日为 Off
func isPattern(nurseID uuid.UUID, date string, firstShift model.ShiftType, assignments model.AssignmentMap) bool {
	oneDayAgo := model.PrevDate(date)
	twoDaysAgo := model.PrevDate(oneDayAgo)

	if _, ok := assignments[twoDaysAgo]; !ok {
		return false
	}
	if _, ok := assignments[oneDayAgo]; !ok {
		return false
	}

	first, ok := assignments.ShiftOn(nurseID, twoDaysAgo)
	if !ok || first != firstShift {
		return false
	}

	second, ok := assignments.ShiftOn(nurseID, oneDayAgo)
	return ok && second == model.ShiftOff
}
