package generator

import (
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/stats"
	"github.com/google/uuid"
)

// buildStatistics 汇总每名护士的月度统计与公平性分数
// 统计从最终排班重建，而非沿用生成过程中的增量分数
func (g *Generator) buildStatistics(pc *passContext) map[uuid.UUID]*model.NurseStatistics {
	return stats.BuildStatistics(pc.nurses, pc.days, pc.assignments, g.input.Settings, g.input.Holidays)
}
