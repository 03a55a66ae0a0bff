package stats

import (
	"testing"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

func TestFairnessScore_AtMean(t *testing.T) {
	scores := map[uuid.UUID]*model.NurseScore{
		uuid.New(): {WeightedHours: 100},
		uuid.New(): {WeightedHours: 120},
		uuid.New(): {WeightedHours: 140},
	}

	// 恰在均值处应得满分
	if got := FairnessScore(120, scores); got != 100 {
		t.Errorf("score at mean = %f, want 100", got)
	}
}

func TestFairnessScore_DeviationLowersScore(t *testing.T) {
	scores := map[uuid.UUID]*model.NurseScore{
		uuid.New(): {WeightedHours: 100},
		uuid.New(): {WeightedHours: 120},
		uuid.New(): {WeightedHours: 140},
	}

	near := FairnessScore(125, scores)
	far := FairnessScore(160, scores)

	if near <= far {
		t.Errorf("closer to mean should score higher: near=%f far=%f", near, far)
	}
	if far < 0 || near > 100 {
		t.Errorf("scores must stay in [0,100]: near=%f far=%f", near, far)
	}
}

func TestFairnessScore_DegenerateCases(t *testing.T) {
	// 空群体
	if got := FairnessScore(50, map[uuid.UUID]*model.NurseScore{}); got != 100 {
		t.Errorf("empty group score = %f, want 100", got)
	}

	// 标准差为零
	uniform := map[uuid.UUID]*model.NurseScore{
		uuid.New(): {WeightedHours: 80},
		uuid.New(): {WeightedHours: 80},
	}
	if got := FairnessScore(80, uniform); got != 100 {
		t.Errorf("zero stddev score = %f, want 100", got)
	}

	// 均值为零
	zeros := map[uuid.UUID]*model.NurseScore{
		uuid.New(): {WeightedHours: 0},
		uuid.New(): {WeightedHours: 0},
	}
	if got := FairnessScore(0, zeros); got != 100 {
		t.Errorf("zero mean score = %f, want 100", got)
	}
}

func TestFairnessScore_ExcludesDedicated(t *testing.T) {
	// 专职护士的极端工时不应拉低普通护士的分数
	scores := map[uuid.UUID]*model.NurseScore{
		uuid.New(): {WeightedHours: 100},
		uuid.New(): {WeightedHours: 100},
		uuid.New(): {WeightedHours: 300, Dedicated: true},
	}

	if got := FairnessScore(100, scores); got != 100 {
		t.Errorf("score with dedicated outlier = %f, want 100", got)
	}
}

func TestCalculateOverallFairness(t *testing.T) {
	statistics := map[uuid.UUID]*model.NurseStatistics{
		uuid.New(): {WeightedHours: 100},
		uuid.New(): {WeightedHours: 110},
		uuid.New(): {WeightedHours: 90},
	}

	overall := CalculateOverallFairness(statistics)

	if overall.Average != 100 {
		t.Errorf("average = %f, want 100", overall.Average)
	}
	if overall.Min != 90 || overall.Max != 110 {
		t.Errorf("min/max = %f/%f, want 90/110", overall.Min, overall.Max)
	}
	if overall.FairnessIndex < 0 || overall.FairnessIndex > 100 {
		t.Errorf("fairness index out of range: %f", overall.FairnessIndex)
	}
}

func TestCalculateOverallFairness_PerfectBalance(t *testing.T) {
	statistics := map[uuid.UUID]*model.NurseStatistics{
		uuid.New(): {WeightedHours: 160},
		uuid.New(): {WeightedHours: 160},
	}

	overall := CalculateOverallFairness(statistics)
	if overall.FairnessIndex != 100 {
		t.Errorf("perfectly balanced index = %f, want 100", overall.FairnessIndex)
	}
}

func TestCalculateOverallFairness_ExcludesDedicated(t *testing.T) {
	statistics := map[uuid.UUID]*model.NurseStatistics{
		uuid.New(): {WeightedHours: 160},
		uuid.New(): {WeightedHours: 160},
		uuid.New(): {WeightedHours: 400, Dedicated: true},
	}

	overall := CalculateOverallFairness(statistics)
	if overall.FairnessIndex != 100 {
		t.Errorf("index with dedicated excluded = %f, want 100", overall.FairnessIndex)
	}
	if overall.Max != 160 {
		t.Errorf("max should exclude dedicated: %f", overall.Max)
	}
}

func TestCalculateOverallFairness_Empty(t *testing.T) {
	overall := CalculateOverallFairness(map[uuid.UUID]*model.NurseStatistics{})
	if overall.FairnessIndex != 100 {
		t.Errorf("empty statistics index = %f, want 100", overall.FairnessIndex)
	}
}

func TestRankByFairness(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	statistics := map[uuid.UUID]*model.NurseStatistics{
		a: {WeightedHours: 100, FairnessScore: 95},
		b: {WeightedHours: 130, FairnessScore: 60},
		c: {WeightedHours: 200, FairnessScore: model.FairnessNotApplicable, Dedicated: true},
	}

	ranks := RankByFairness(statistics)

	if len(ranks) != 2 {
		t.Fatalf("rank count = %d, want 2 (dedicated excluded)", len(ranks))
	}
	if ranks[0].NurseID != a || ranks[0].Rank != 1 {
		t.Errorf("first rank should be highest score nurse")
	}
	if ranks[1].NurseID != b || ranks[1].Rank != 2 {
		t.Errorf("second rank should be lower score nurse")
	}
}

func TestAnalyzeChargeDistribution(t *testing.T) {
	balanced := map[uuid.UUID]*model.NurseStatistics{
		uuid.New(): {ChargeCount: 5},
		uuid.New(): {ChargeCount: 5},
		uuid.New(): {ChargeCount: 5},
	}
	if dist := AnalyzeChargeDistribution(balanced); !dist.IsBalanced {
		t.Error("equal charge counts should be balanced")
	}

	skewed := map[uuid.UUID]*model.NurseStatistics{
		uuid.New(): {ChargeCount: 10},
		uuid.New(): {ChargeCount: 0},
		uuid.New(): {ChargeCount: 0},
	}
	if dist := AnalyzeChargeDistribution(skewed); dist.IsBalanced {
		t.Error("skewed charge counts should not be balanced")
	}

	if dist := AnalyzeChargeDistribution(nil); !dist.IsBalanced {
		t.Error("empty statistics should be balanced")
	}
}
