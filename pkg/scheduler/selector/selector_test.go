package selector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/scheduler/generator"
	"github.com/google/uuid"
)

func testInput(count int) generator.Input {
	settings := model.DefaultSettings()
	settings.SimultaneousStaff = model.SimultaneousStaff{Day: 2, Evening: 2, Night: 2}

	nurses := make([]*model.Nurse, count)
	for i := range nurses {
		nurses[i] = &model.Nurse{
			ID:                uuid.New(),
			Name:              fmt.Sprintf("护士%d", i+1),
			YearsOfExperience: 5,
			Status:            "active",
		}
	}

	return generator.Input{
		OrgID:     uuid.New(),
		YearMonth: "2026-01",
		Nurses:    nurses,
		Settings:  &settings,
	}
}

func TestRun_PicksBestPass(t *testing.T) {
	s := NewSelector(Options{Passes: 8, Workers: 2, Seed: 100})

	best, err := s.Run(context.Background(), testInput(12))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if best.Passes != 8 {
		t.Errorf("completed passes = %d, want 8", best.Passes)
	}
	if best.PassIndex < 0 || best.PassIndex >= 8 {
		t.Errorf("pass index out of range: %d", best.PassIndex)
	}
	if best.Assignments == nil || best.Statistics == nil {
		t.Error("best result should carry assignments and statistics")
	}
}

func TestRun_BestNotWorseThanAnyPass(t *testing.T) {
	input := testInput(12)
	s := NewSelector(Options{Passes: 6, Workers: 3, Seed: 77})

	best, err := s.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	gen, err := generator.NewGenerator(input, generator.Options{})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	for pass := 0; pass < 6; pass++ {
		result, err := gen.Generate(context.Background(), 77+int64(pass))
		if err != nil {
			t.Fatalf("replay pass %d failed: %v", pass, err)
		}
		if result.FairnessIndex > best.FairnessIndex {
			t.Errorf("pass %d fairness %f exceeds selected best %f",
				pass, result.FairnessIndex, best.FairnessIndex)
		}
		if pass == best.PassIndex && result.FairnessIndex != best.FairnessIndex {
			t.Errorf("winning pass replay fairness %f differs from best %f",
				result.FairnessIndex, best.FairnessIndex)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	input := testInput(10)

	a, err := NewSelector(Options{Passes: 5, Workers: 4, Seed: 42}).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := NewSelector(Options{Passes: 5, Workers: 1, Seed: 42}).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// 并行度不影响择优结果
	if a.PassIndex != b.PassIndex {
		t.Errorf("pass index differs across worker counts: %d vs %d", a.PassIndex, b.PassIndex)
	}
	if a.FairnessIndex != b.FairnessIndex {
		t.Errorf("fairness differs across worker counts: %f vs %f", a.FairnessIndex, b.FairnessIndex)
	}
}

func TestRun_DefaultOptions(t *testing.T) {
	s := NewSelector(Options{})
	if s.options.Passes != DefaultPasses {
		t.Errorf("default passes = %d, want %d", s.options.Passes, DefaultPasses)
	}
	if s.options.Workers != DefaultWorkers {
		t.Errorf("default workers = %d, want %d", s.options.Workers, DefaultWorkers)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSelector(Options{Passes: 4, Workers: 2}).Run(ctx, testInput(10))
	if err == nil {
		t.Error("cancelled context should not yield a schedule")
	}
}

func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	best, err := NewSelector(Options{Passes: 3, Workers: 2, Seed: 9}).Run(ctx, testInput(10))
	if err != nil {
		t.Fatalf("Run within generous timeout failed: %v", err)
	}
	if best.FairnessIndex < 0 || best.FairnessIndex > 100 {
		t.Errorf("fairness index out of range: %f", best.FairnessIndex)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	input := testInput(10)
	input.YearMonth = "bogus"

	if _, err := NewSelector(Options{Passes: 2}).Run(context.Background(), input); err == nil {
		t.Error("invalid year-month should fail")
	}
}
