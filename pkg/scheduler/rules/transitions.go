// Package rules 提供排班规则校验器
package rules

import (
	"fmt"
	"strings"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// ForbiddenTransitions 禁止的班次衔接（前一日班次 → 当日禁排班次）
// 采用静态禁止对表建模：下列衔接的休息不足两个班段
//
//	N(22:30-07:30) → D(07:00) 连续工作，无休息
//	N(22:30-07:30) → E(15:00) 仅一个班段休息
//	N(22:30-07:30) → C(10:00) 休息约 2.5 小时
//	E(15:00-23:00) → D(07:00) 仅一个班段休息
//	C(10:00-18:30) → N(22:30) 禁止模式
var ForbiddenTransitions = map[model.ShiftType][]model.ShiftType{
	model.ShiftNight:   {model.ShiftDay, model.ShiftEvening, model.ShiftCharge},
	model.ShiftEvening: {model.ShiftDay},
	model.ShiftCharge:  {model.ShiftNight},
}

// CheckTransition 检查护士当日班次与前一日班次的衔接是否合法
// 此规则为最硬约束：即使在兜底填充中也绝不强行违反
func CheckTransition(nurseID uuid.UUID, date string, shift model.ShiftType, assignments model.AssignmentMap) Result {
	prevDate := model.PrevDate(date)
	if _, ok := assignments[prevDate]; !ok {
		return Result{Valid: true}
	}

	prevShift, ok := assignments.ShiftOn(nurseID, prevDate)
	if !ok || prevShift == model.ShiftOff {
		return Result{Valid: true}
	}

	for _, forbidden := range ForbiddenTransitions[prevShift] {
		if forbidden == shift {
			return Result{
				Valid:        false,
				ViolatedRule: RuleForbiddenTransition,
				Reason: fmt.Sprintf("禁止的班次衔接: %s → %s (需至少两个班段的休息)",
					strings.ToUpper(string(prevShift)), strings.ToUpper(string(shift))),
			}
		}
	}

	return Result{Valid: true}
}
