// Package stats 提供排班统计分析功能
package stats

import (
	"math"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// ChargeDistribution 责任组长班分布分析结果
type ChargeDistribution struct {
	Average    float64 `json:"average"`
	StdDev     float64 `json:"std_dev"`
	IsBalanced bool    `json:"is_balanced"` // 标准差在均值 30% 以内视为均衡
}

// AnalyzeChargeDistribution 分析责任组长班在护士间的分布均衡度
func AnalyzeChargeDistribution(statistics map[uuid.UUID]*model.NurseStatistics) ChargeDistribution {
	var counts []float64
	for _, s := range statistics {
		counts = append(counts, float64(s.ChargeCount))
	}

	if len(counts) == 0 {
		return ChargeDistribution{IsBalanced: true}
	}

	avg := mean(counts)
	stdDev := math.Sqrt(variance(counts, avg))

	return ChargeDistribution{
		Average:    round1(avg),
		StdDev:     round1(stdDev),
		IsBalanced: avg == 0 || stdDev/avg <= 0.3,
	}
}
