// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// FairnessScore 计算个人公平性分数 (0-100)
// 以非专职护士群体的加权工时为基准：越接近均值分数越高
// z-score 为 0 得 100 分，达到 2 得 0 分
func FairnessScore(individualWeightedHours float64, scores map[uuid.UUID]*model.NurseScore) float64 {
	hours := includedHours(scores)
	if len(hours) == 0 {
		return 100
	}

	avg := mean(hours)
	if avg == 0 {
		return 100
	}

	stdDev := math.Sqrt(variance(hours, avg))
	if stdDev == 0 {
		return 100
	}

	z := math.Abs(individualWeightedHours-avg) / stdDev
	return round1(clamp(100-z*50, 0, 100))
}

// OverallFairness 整体公平性指标
type OverallFairness struct {
	Average       float64 `json:"average"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	FairnessIndex float64 `json:"fairness_index"` // 0-100，越高越公平
}

// CalculateOverallFairness 计算整体公平性指标
// 基于变异系数：CV 为 0 时完全公平 (100 分)，CV 越高越不公平
// 专职护士不计入均值与标准差
func CalculateOverallFairness(statistics map[uuid.UUID]*model.NurseStatistics) OverallFairness {
	var hours []float64
	for _, s := range statistics {
		if s.Dedicated {
			continue
		}
		hours = append(hours, s.WeightedHours)
	}

	if len(hours) == 0 {
		return OverallFairness{FairnessIndex: 100}
	}

	avg := mean(hours)
	stdDev := math.Sqrt(variance(hours, avg))

	min, max := hours[0], hours[0]
	for _, h := range hours[1:] {
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}

	cv := 0.0
	if avg > 0 {
		cv = stdDev / avg * 100
	}

	return OverallFairness{
		Average:       round1(avg),
		StdDev:        round1(stdDev),
		Min:           round1(min),
		Max:           round1(max),
		FairnessIndex: round1(clamp(100-cv*5, 0, 100)),
	}
}

// FairnessRank 公平性排名条目
type FairnessRank struct {
	NurseID       uuid.UUID `json:"nurse_id"`
	Rank          int       `json:"rank"`
	WeightedHours float64   `json:"weighted_hours"`
	FairnessScore float64   `json:"fairness_score"`
}

// RankByFairness 按公平性分数降序排名（第 1 名最接近均值）
// 专职护士不参与排名
func RankByFairness(statistics map[uuid.UUID]*model.NurseStatistics) []FairnessRank {
	entries := make([]FairnessRank, 0, len(statistics))
	for id, s := range statistics {
		if s.Dedicated {
			continue
		}
		entries = append(entries, FairnessRank{
			NurseID:       id,
			WeightedHours: s.WeightedHours,
			FairnessScore: s.FairnessScore,
		})
	}

	// 分数相同时按 ID 排序，保证输出稳定
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FairnessScore != entries[j].FairnessScore {
			return entries[i].FairnessScore > entries[j].FairnessScore
		}
		return entries[i].NurseID.String() < entries[j].NurseID.String()
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// includedHours 提取非专职护士的加权工时列表
func includedHours(scores map[uuid.UUID]*model.NurseScore) []float64 {
	var hours []float64
	for _, s := range scores {
		if s.Dedicated {
			continue
		}
		hours = append(hours, s.WeightedHours)
	}
	return hours
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 计算方差
func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// clamp 将值限制在 [min, max] 区间
func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// round1 四舍五入到一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
