package generator

import (
	"sort"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
	"github.com/google/uuid"
)

// jitterHours 加权工时抖动幅度（±2 小时）
// 打破平局，使多趟生成产出不同方案
const jitterHours = 2.0

// candidate 排序用的候选条目
type candidate struct {
	nurse         *model.Nurse
	chargeCount   int
	continuity    int     // 0 = 昨日有工作班次，1 = 昨日休息或未排
	jitteredHours float64 // 加权工时 + 抖动
	violation     *rules.Result
}

// pickCandidate 为某日某班次选出最优护士
// 先在满足全部规则的候选中选择；不足时进入兜底放宽，
// 但绝不放宽禁止衔接与责任组长年资要求
func (g *Generator) pickCandidate(pc *passContext, date string, shift model.ShiftType) (uuid.UUID, bool) {
	strict, relaxed := g.collectCandidates(pc, date, shift)

	if len(strict) > 0 {
		g.sortCandidates(strict, shift)
		return strict[0].nurse.ID, true
	}

	if len(relaxed) > 0 {
		g.sortCandidates(relaxed, shift)
		chosen := relaxed[0]
		pc.violations = append(pc.violations, model.Violation{
			NurseID: chosen.nurse.ID,
			Date:    date,
			Rule:    chosen.violation.ViolatedRule,
			Reason:  chosen.violation.Reason,
		})
		g.logger.RuleViolation(chosen.violation.ViolatedRule, chosen.violation.Reason)
		return chosen.nurse.ID, true
	}

	return uuid.Nil, false
}

// collectCandidates 收集当日未排班的候选，分为严格合规与可放宽两组
func (g *Generator) collectCandidates(pc *passContext, date string, shift model.ShiftType) (strict, relaxed []candidate) {
	da := pc.assignments[date]
	prevDate := model.PrevDate(date)

	for _, n := range pc.nurses {
		if da.Contains(n.ID) {
			continue
		}
		// 专职护士不进入其他班次的候选
		if n.IsDedicated() && n.PersonalRules.DedicatedRole.Shift() != shift {
			continue
		}

		score := pc.scores[n.ID]
		c := candidate{
			nurse:         n,
			chargeCount:   score.ChargeCount,
			continuity:    1,
			jitteredHours: score.WeightedHours + pc.rng.Float64()*jitterHours*2 - jitterHours,
		}
		if prev, ok := pc.assignments.ShiftOn(n.ID, prevDate); ok && prev != model.ShiftOff {
			c.continuity = 0
		}

		result := g.validator.Validate(n, date, shift, pc.assignments)
		if result.Valid {
			strict = append(strict, c)
			continue
		}

		// 兜底中仍然不可触碰的规则
		switch result.ViolatedRule {
		case rules.RuleVacation, rules.RuleForbiddenTransition, rules.RuleChargeMinYears:
			continue
		}
		c.violation = &result
		relaxed = append(relaxed, c)
	}

	return strict, relaxed
}

// sortCandidates 复合排序：
// charge 班优先组长次数少者；其余先看昨日是否在岗（在岗者优先延续），再看抖动后加权工时升序
func (g *Generator) sortCandidates(candidates []candidate, shift model.ShiftType) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if shift == model.ShiftCharge && candidates[i].chargeCount != candidates[j].chargeCount {
			return candidates[i].chargeCount < candidates[j].chargeCount
		}
		if candidates[i].continuity != candidates[j].continuity {
			return candidates[i].continuity < candidates[j].continuity
		}
		return candidates[i].jitteredHours < candidates[j].jitteredHours
	})
}
