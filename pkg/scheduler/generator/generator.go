// Package generator 提供月度排班生成器
// 采用四阶段贪心策略：初始化与休假 → 专职预排 → 按优先级填充 → 剩余补休
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
	"github.com/banbiao/banbiao/pkg/stats"
	"github.com/google/uuid"
)

// Input 单次生成的输入
// 生成期间全部只读
type Input struct {
	OrgID     uuid.UUID
	YearMonth string // YYYY-MM
	Nurses    []*model.Nurse
	Settings  *model.OrganizationSettings
	Holidays  model.HolidaySet
}

// Options 生成器选项
type Options struct {
	// DisableOffBlocks 关闭补休成块预排
	DisableOffBlocks bool
}

// Result 单次生成的完整产出
type Result struct {
	Assignments   model.AssignmentMap                  `json:"assignments"`
	Statistics    map[uuid.UUID]*model.NurseStatistics `json:"statistics"`
	Violations    []model.Violation                    `json:"violations"`
	FairnessIndex float64                              `json:"fairness_index"`
	Duration      time.Duration                        `json:"duration"`
}

// Generator 月度排班生成器
// 单个实例可被多个 goroutine 并发调用 Generate：
// 全部可变状态都在每次调用的 passContext 中
type Generator struct {
	input     Input
	options   Options
	validator *rules.Validator
	logger    *logger.RosterLogger
}

// NewGenerator 创建生成器
func NewGenerator(input Input, options Options) (*Generator, error) {
	if input.YearMonth == "" {
		return nil, fmt.Errorf("缺少年月参数")
	}
	if _, err := model.ParseYearMonth(input.YearMonth); err != nil {
		return nil, err
	}
	if input.Settings == nil {
		return nil, fmt.Errorf("缺少组织规则配置")
	}

	return &Generator{
		input:     input,
		options:   options,
		validator: rules.NewValidator(input.Settings),
		logger:    logger.NewRosterLogger(),
	}, nil
}

// passContext 单趟生成的可变状态
type passContext struct {
	days        []string
	nurses      []*model.Nurse // 在职护士
	assignments model.AssignmentMap
	scores      map[uuid.UUID]*model.NurseScore
	violations  []model.Violation
	rng         *rand.Rand
}

// Generate 执行一趟完整生成
// 相同的 seed 产出相同的排班
func (g *Generator) Generate(ctx context.Context, seed int64) (*Result, error) {
	startTime := time.Now()

	days, err := model.DaysInMonth(g.input.YearMonth)
	if err != nil {
		return nil, err
	}

	var active []*model.Nurse
	for _, n := range g.input.Nurses {
		if n.IsActive() {
			active = append(active, n)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("没有在职护士可供排班")
	}

	pc := &passContext{
		days:        days,
		nurses:      active,
		assignments: make(model.AssignmentMap, len(days)),
		scores:      make(map[uuid.UUID]*model.NurseScore, len(active)),
		rng:         rand.New(rand.NewSource(seed)),
	}
	for _, n := range active {
		pc.scores[n.ID] = &model.NurseScore{
			NurseID:           n.ID,
			YearsOfExperience: n.YearsOfExperience,
			Dedicated:         n.IsDedicated(),
		}
	}

	// 阶段 0：初始化每日空排班，休假日预排入 off
	g.initDays(pc)

	// 补休成块预排（可关闭）
	if !g.options.DisableOffBlocks {
		g.placeOffBlocks(pc)
	}

	// 阶段 1：专职护士预排
	g.assignDedicated(ctx, pc)

	// 阶段 2：按 night → charge → evening → day 优先级填充
	if err := g.fillShifts(ctx, pc); err != nil {
		return nil, err
	}

	// 阶段 3：未排班护士补休
	g.fillRemainingOff(pc)

	// 阶段 4：统计与公平性
	statistics := g.buildStatistics(pc)
	overall := stats.CalculateOverallFairness(statistics)

	return &Result{
		Assignments:   pc.assignments,
		Statistics:    statistics,
		Violations:    pc.violations,
		FairnessIndex: overall.FairnessIndex,
		Duration:      time.Since(startTime),
	}, nil
}

// initDays 初始化全月空排班，并将休假护士排入 off
func (g *Generator) initDays(pc *passContext) {
	for _, date := range pc.days {
		da := model.NewDailyAssignment()
		for _, n := range pc.nurses {
			if n.OnVacation(date) {
				da.Add(model.ShiftOff, n.ID)
			}
		}
		pc.assignments[date] = da
	}
}

// assignDedicated 将专职护士预排到其固定班次
// 规则校验不通过的日期排入 off（如连续上限强制休息）
func (g *Generator) assignDedicated(ctx context.Context, pc *passContext) {
	for _, date := range pc.days {
		if ctx.Err() != nil {
			return
		}
		da := pc.assignments[date]

		// 专职夜班：每名护士当日合规即排入 night
		for _, n := range pc.nurses {
			if n.PersonalRules.DedicatedRole != model.DedicatedNight || da.Contains(n.ID) {
				continue
			}
			if result := g.validator.Validate(n, date, model.ShiftNight, pc.assignments); result.Valid {
				g.place(pc, date, model.ShiftNight, n.ID)
			} else {
				da.Add(model.ShiftOff, n.ID)
			}
		}

		// 专职 charge：收集当日全部合规者，按当前加权工时升序轮流占用唯一组长槽位
		var eligible []*model.Nurse
		for _, n := range pc.nurses {
			if n.PersonalRules.DedicatedRole != model.DedicatedCharge || da.Contains(n.ID) {
				continue
			}
			if result := g.validator.Validate(n, date, model.ShiftCharge, pc.assignments); result.Valid {
				eligible = append(eligible, n)
			} else {
				da.Add(model.ShiftOff, n.ID)
			}
		}
		sort.SliceStable(eligible, func(i, j int) bool {
			return pc.scores[eligible[i].ID].WeightedHours < pc.scores[eligible[j].ID].WeightedHours
		})
		if len(eligible) > 0 && len(da.Charge) < g.input.Settings.RequiredCount(model.ShiftCharge) {
			g.place(pc, date, model.ShiftCharge, eligible[0].ID)
		}
		// 未选中者保持未排，阶段 3 统一补入 off
	}
}

// fillShifts 按日期遍历，依优先级填充各工作班次
func (g *Generator) fillShifts(ctx context.Context, pc *passContext) error {
	for _, date := range pc.days {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, shift := range model.WorkShiftTypes {
			required := g.input.Settings.RequiredCount(shift)
			da := pc.assignments[date]

			for len(da.List(shift)) < required {
				nurseID, ok := g.pickCandidate(pc, date, shift)
				if !ok {
					break
				}
				g.place(pc, date, shift, nurseID)
			}

			if missing := required - len(da.List(shift)); missing > 0 {
				pc.violations = append(pc.violations, model.Violation{
					NurseID: uuid.Nil,
					Date:    date,
					Rule:    rules.RuleUnderstaffed,
					Reason:  fmt.Sprintf("%s 班次缺 %d 人", shift, missing),
				})
				g.logger.RuleViolation(rules.RuleUnderstaffed,
					fmt.Sprintf("%s %s 缺 %d 人", date, shift, missing))
			}
		}
	}
	return nil
}

// fillRemainingOff 将全月每日仍未排班的护士补入 off
func (g *Generator) fillRemainingOff(pc *passContext) {
	for _, date := range pc.days {
		da := pc.assignments[date]
		for _, n := range pc.nurses {
			if !da.Contains(n.ID) {
				da.Add(model.ShiftOff, n.ID)
			}
		}
	}
}

// place 排入一个班次并更新累加器
func (g *Generator) place(pc *passContext, date string, shift model.ShiftType, nurseID uuid.UUID) {
	pc.assignments[date].Add(shift, nurseID)

	score := pc.scores[nurseID]
	score.WeightedHours += g.weightedHours(date, shift)
	if shift == model.ShiftCharge {
		score.ChargeCount++
	}
}

// weightedHours 计算某日期某班次的加权工时
func (g *Generator) weightedHours(date string, shift model.ShiftType) float64 {
	return stats.WeightedHours(date, shift, g.input.Settings, g.input.Holidays)
}
