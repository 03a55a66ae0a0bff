// Package swap 提供换班评估与推荐功能
package swap

import (
	"fmt"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
)

// Evaluator 换班评估器
// 在假设性排班表上重新校验规则，不修改原排班
type Evaluator struct {
	validator *rules.Validator
	settings  *model.OrganizationSettings
}

// NewEvaluator 创建换班评估器
func NewEvaluator(settings *model.OrganizationSettings) *Evaluator {
	return &Evaluator{
		validator: rules.NewValidator(settings),
		settings:  settings,
	}
}

// Issue 换班问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible              bool    `json:"feasible"`
	RequiresAdminApproval bool    `json:"requires_admin_approval"`
	Issues                []Issue `json:"issues"`
}

// Evaluate 评估一次互换换班的可行性
// 构造换班后的假设排班表，对双方的新班次重新执行全部规则校验，
// 并检查双方次日班次的衔接是否仍然合法
func (e *Evaluator) Evaluate(requester, target *model.Nurse, req *model.SwapRequest, assignments model.AssignmentMap) *Evaluation {
	eval := &Evaluation{Feasible: true, Issues: make([]Issue, 0)}

	if requester == nil || target == nil || req == nil {
		return e.reject(eval, "invalid_request", "无效的换班请求")
	}
	if !requester.IsActive() || !target.IsActive() {
		return e.reject(eval, "nurse_inactive", "换班双方必须均为在职护士")
	}

	// 双方当前必须确实排在请求声明的班位上
	if shift, ok := assignments.ShiftOn(requester.ID, req.RequesterShift.Date); !ok || shift != req.RequesterShift.Type {
		return e.reject(eval, "assignment_mismatch",
			fmt.Sprintf("发起人在 %s 的实际班次与请求不符", req.RequesterShift.Date))
	}
	if shift, ok := assignments.ShiftOn(target.ID, req.TargetShift.Date); !ok || shift != req.TargetShift.Type {
		return e.reject(eval, "assignment_mismatch",
			fmt.Sprintf("对方在 %s 的实际班次与请求不符", req.TargetShift.Date))
	}

	hypothetical := e.applySwap(req, requester, target, assignments)

	// 双方在新班位上重新过一遍全部规则
	e.checkPlacement(eval, hypothetical, requester, req.TargetShift)
	e.checkPlacement(eval, hypothetical, target, req.RequesterShift)

	// 换班可能破坏双方原有的次日衔接
	e.checkNextDay(eval, hypothetical, requester, req.TargetShift.Date)
	e.checkNextDay(eval, hypothetical, requester, req.RequesterShift.Date)
	e.checkNextDay(eval, hypothetical, target, req.RequesterShift.Date)
	e.checkNextDay(eval, hypothetical, target, req.TargetShift.Date)

	// 存在任何违规的换班只能由管理员特批放行
	eval.RequiresAdminApproval = len(eval.Issues) > 0 || e.needsAdminApproval(req)
	return eval
}

// applySwap 构造换班后的假设排班表
func (e *Evaluator) applySwap(req *model.SwapRequest, requester, target *model.Nurse, assignments model.AssignmentMap) model.AssignmentMap {
	hypothetical := assignments.Clone()

	hypothetical[req.RequesterShift.Date].Remove(req.RequesterShift.Type, requester.ID)
	hypothetical[req.TargetShift.Date].Remove(req.TargetShift.Type, target.ID)
	hypothetical[req.TargetShift.Date].Add(req.TargetShift.Type, requester.ID)
	hypothetical[req.RequesterShift.Date].Add(req.RequesterShift.Type, target.ID)

	return hypothetical
}

// checkPlacement 校验护士在假设排班表上的新班位
func (e *Evaluator) checkPlacement(eval *Evaluation, hypothetical model.AssignmentMap, nurse *model.Nurse, slot model.SwapShift) {
	if slot.Type == model.ShiftOff {
		return
	}

	if result := e.validator.Validate(nurse, slot.Date, slot.Type, hypothetical); !result.Valid {
		eval.Feasible = false
		eval.Issues = append(eval.Issues, Issue{
			Type:     result.ViolatedRule,
			Severity: "error",
			Message:  fmt.Sprintf("%s：%s", nurse.Name, result.Reason),
		})
	}
}

// checkNextDay 校验换班后护士次日班次的衔接
func (e *Evaluator) checkNextDay(eval *Evaluation, hypothetical model.AssignmentMap, nurse *model.Nurse, date string) {
	nextDate := model.NextDate(date)
	nextShift, ok := hypothetical.ShiftOn(nurse.ID, nextDate)
	if !ok || nextShift == model.ShiftOff {
		return
	}

	if result := rules.CheckTransition(nurse.ID, nextDate, nextShift, hypothetical); !result.Valid {
		eval.Feasible = false
		eval.Issues = append(eval.Issues, Issue{
			Type:     result.ViolatedRule,
			Severity: "error",
			Message:  fmt.Sprintf("%s 次日衔接：%s", nurse.Name, result.Reason),
		})
	}
}

// needsAdminApproval 无违规时的额外审批条件：
// 班次类型不同（工作量变化）或涉及责任组长班
func (e *Evaluator) needsAdminApproval(req *model.SwapRequest) bool {
	if req.RequesterShift.Type != req.TargetShift.Type {
		return true
	}
	return req.RequesterShift.Type == model.ShiftCharge || req.TargetShift.Type == model.ShiftCharge
}

// reject 记录致命问题并标记不可行
func (e *Evaluator) reject(eval *Evaluation, issueType, message string) *Evaluation {
	eval.Feasible = false
	eval.Issues = append(eval.Issues, Issue{Type: issueType, Severity: "error", Message: message})
	return eval
}
