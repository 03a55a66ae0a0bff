package stats

import (
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// WeightedHours 计算某日期某班次的加权工时
// 节假日与周末按权重表加成，责任组长班附加强度系数
func WeightedHours(date string, shift model.ShiftType, settings *model.OrganizationSettings, holidays model.HolidaySet) float64 {
	weight := model.WeightFor(holidays.KindOf(date), shift)
	if shift == model.ShiftCharge && settings.ChargeSettings.IntensityWeight > 0 {
		weight *= settings.ChargeSettings.IntensityWeight
	}
	return shift.Hours() * weight
}

// BuildStatistics 从最终排班重建每名护士的月度统计与公平性分数
// 生成器与草稿编辑路径共用：统计只依赖排班本身，与生成过程无关
func BuildStatistics(
	nurses []*model.Nurse,
	days []string,
	assignments model.AssignmentMap,
	settings *model.OrganizationSettings,
	holidays model.HolidaySet,
) map[uuid.UUID]*model.NurseStatistics {
	statistics := make(map[uuid.UUID]*model.NurseStatistics, len(nurses))
	scores := make(map[uuid.UUID]*model.NurseScore, len(nurses))

	for _, n := range nurses {
		s := &model.NurseStatistics{
			ShiftCounts: make(map[model.ShiftType]int),
			Dedicated:   n.IsDedicated(),
		}

		for _, date := range days {
			shift, ok := assignments.ShiftOn(n.ID, date)
			if !ok {
				continue
			}
			s.ShiftCounts[shift]++
			if !shift.IsWork() {
				continue
			}
			s.TotalHours += shift.Hours()
			s.WeightedHours += WeightedHours(date, shift, settings, holidays)
			if shift == model.ShiftCharge {
				s.ChargeCount++
			}
		}

		statistics[n.ID] = s
		scores[n.ID] = &model.NurseScore{
			WeightedHours: s.WeightedHours,
			Dedicated:     s.Dedicated,
		}
	}

	// 公平性分数基于非专职群体的加权工时
	for _, n := range nurses {
		s := statistics[n.ID]
		if s.Dedicated {
			s.FairnessScore = model.FairnessNotApplicable
			continue
		}
		s.FairnessScore = FairnessScore(s.WeightedHours, scores)
	}

	return statistics
}
