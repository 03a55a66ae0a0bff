package generator

import (
	"github.com/banbiao/banbiao/pkg/model"
)

// offBlockSize 补休成块的目标长度
// 连续两天补休比零散单日更接近实际排班习惯
const offBlockSize = 2

// placeOffBlocks 为全体护士预排成块补休
// 专职护士同样参与，避免整月无休连轴转。
// 每名护士的月度补休目标为 MonthlyOffDays 扣除当月休假天数；
// 按两天一块随机放置，不足两天的余数放单日。
// 任何放置都不得使当日可用人力低于全班次总需求
func (g *Generator) placeOffBlocks(pc *passContext) {
	totalRequired := g.totalRequiredStaff()

	for _, n := range pc.nurses {
		remaining := g.input.Settings.MonthlyOffDays - g.vacationDaysInMonth(pc, n)
		if remaining <= 0 {
			continue
		}

		// 随机起点遍历全月，避免补休聚集在月初
		offset := pc.rng.Intn(len(pc.days))

		for i := 0; i < len(pc.days) && remaining > 0; i++ {
			date := pc.days[(offset+i)%len(pc.days)]
			if pc.assignments[date].Contains(n.ID) {
				continue
			}

			size := offBlockSize
			if remaining < size {
				size = remaining
			}

			placed := g.tryPlaceOffBlock(pc, n, date, size, totalRequired)
			remaining -= placed
		}
	}
}

// tryPlaceOffBlock 从 date 起尝试放置一个连续补休块，返回实际放置天数
func (g *Generator) tryPlaceOffBlock(pc *passContext, n *model.Nurse, date string, size, totalRequired int) int {
	// 先检查整块可放，避免半块中断
	current := date
	for i := 0; i < size; i++ {
		da, ok := pc.assignments[current]
		if !ok || da.Contains(n.ID) {
			return 0
		}
		if g.unassignedCount(pc, current)-1 < totalRequired {
			return 0
		}
		current = model.NextDate(current)
	}

	current = date
	for i := 0; i < size; i++ {
		pc.assignments[current].Add(model.ShiftOff, n.ID)
		current = model.NextDate(current)
	}
	return size
}

// vacationDaysInMonth 统计护士当月休假天数
func (g *Generator) vacationDaysInMonth(pc *passContext, n *model.Nurse) int {
	count := 0
	for _, date := range pc.days {
		if n.OnVacation(date) {
			count++
		}
	}
	return count
}

// unassignedCount 统计当日尚未进入任何列表的护士数
func (g *Generator) unassignedCount(pc *passContext, date string) int {
	count := 0
	da := pc.assignments[date]
	for _, n := range pc.nurses {
		if !da.Contains(n.ID) {
			count++
		}
	}
	return count
}

// totalRequiredStaff 全部工作班次的每日总需求人数
func (g *Generator) totalRequiredStaff() int {
	total := 0
	for _, shift := range model.WorkShiftTypes {
		total += g.input.Settings.RequiredCount(shift)
	}
	return total
}
