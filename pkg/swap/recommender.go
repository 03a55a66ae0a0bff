// Package swap 提供换班评估与推荐功能
package swap

import (
	"sort"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/rules"
	"github.com/google/uuid"
)

// Recommender 接班人选推荐器
// 为需要出让的班位推荐可合法接班的护士
type Recommender struct {
	validator *rules.Validator
}

// NewRecommender 创建推荐器
func NewRecommender(settings *model.OrganizationSettings) *Recommender {
	return &Recommender{validator: rules.NewValidator(settings)}
}

// Recommendation 接班推荐
type Recommendation struct {
	NurseID       uuid.UUID `json:"nurse_id"`
	Name          string    `json:"name"`
	WeightedHours float64   `json:"weighted_hours"`
	Rank          int       `json:"rank"`
	Reason        string    `json:"reason"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxRecommendations int         // 最大推荐数量
	Exclude            []uuid.UUID // 排除的护士
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{MaxRecommendations: 5}
}

// RecommendTargets 为某班位推荐接班护士
// 仅保留通过全部规则校验的人选，按当月加权工时升序排名：
// 工时少者接班对公平性的改善最大
func (r *Recommender) RecommendTargets(
	nurses []*model.Nurse,
	slot model.SwapShift,
	assignments model.AssignmentMap,
	statistics map[uuid.UUID]*model.NurseStatistics,
	options *RecommendOptions,
) []Recommendation {
	if options == nil {
		options = DefaultRecommendOptions()
	}

	excluded := make(map[uuid.UUID]bool, len(options.Exclude))
	for _, id := range options.Exclude {
		excluded[id] = true
	}

	var recommendations []Recommendation
	for _, n := range nurses {
		if excluded[n.ID] || !n.IsActive() {
			continue
		}
		// 当日已有工作班次的护士不能接班
		if shift, ok := assignments.ShiftOn(n.ID, slot.Date); ok && shift.IsWork() {
			continue
		}
		if result := r.validator.Validate(n, slot.Date, slot.Type, assignments); !result.Valid {
			continue
		}

		rec := Recommendation{
			NurseID: n.ID,
			Name:    n.Name,
			Reason:  "通过全部规则校验",
		}
		if s, ok := statistics[n.ID]; ok {
			rec.WeightedHours = s.WeightedHours
		}
		recommendations = append(recommendations, rec)
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].WeightedHours != recommendations[j].WeightedHours {
			return recommendations[i].WeightedHours < recommendations[j].WeightedHours
		}
		return recommendations[i].NurseID.String() < recommendations[j].NurseID.String()
	})

	if len(recommendations) > options.MaxRecommendations {
		recommendations = recommendations[:options.MaxRecommendations]
	}
	for i := range recommendations {
		recommendations[i].Rank = i + 1
	}

	return recommendations
}
