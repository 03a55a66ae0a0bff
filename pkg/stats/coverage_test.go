package stats

import (
	"testing"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

func coverageFixture() ([]*model.Nurse, []string, model.AssignmentMap, *model.OrganizationSettings) {
	settings := model.DefaultSettings()
	settings.SimultaneousStaff = model.SimultaneousStaff{Day: 1, Evening: 1, Night: 1}

	nurses := make([]*model.Nurse, 4)
	for i := range nurses {
		nurses[i] = &model.Nurse{ID: uuid.New(), Name: "护士", YearsOfExperience: 5}
	}

	days := []string{"2026-01-01", "2026-01-02"}
	assignments := model.AssignmentMap{}
	for _, date := range days {
		da := model.NewDailyAssignment()
		da.Add(model.ShiftDay, nurses[0].ID)
		da.Add(model.ShiftEvening, nurses[1].ID)
		da.Add(model.ShiftNight, nurses[2].ID)
		da.Add(model.ShiftCharge, nurses[3].ID)
		assignments[date] = da
	}

	return nurses, days, assignments, &settings
}

func TestAnalyzeCoverage_Complete(t *testing.T) {
	nurses, days, assignments, settings := coverageFixture()

	report := AnalyzeCoverage(nurses, days, assignments, settings)

	if !report.Complete() {
		t.Fatalf("complete roster should have no issues, got %d", len(report.Issues))
	}
	// 每日 day/evening/night/charge 各 1 个槽位，共 2 天
	if report.TotalSlots != 8 {
		t.Errorf("total slots = %d, want 8", report.TotalSlots)
	}
	if report.FillRate != 100 {
		t.Errorf("fill rate = %f, want 100", report.FillRate)
	}
}

func TestAnalyzeCoverage_MissingNurse(t *testing.T) {
	nurses, days, assignments, settings := coverageFixture()
	assignments[days[0]].Remove(model.ShiftEvening, nurses[1].ID)

	report := AnalyzeCoverage(nurses, days, assignments, settings)

	if report.Complete() {
		t.Fatal("missing nurse should be reported")
	}

	var foundMissing, foundUnderstaffed bool
	for _, issue := range report.Issues {
		switch issue.Kind {
		case "missing":
			foundMissing = true
		case "understaffed":
			foundUnderstaffed = true
		}
	}
	if !foundMissing {
		t.Error("expected a missing issue for the removed nurse")
	}
	if !foundUnderstaffed {
		t.Error("expected an understaffed issue for the empty slot")
	}
}

func TestAnalyzeCoverage_DuplicateNurse(t *testing.T) {
	nurses, days, assignments, settings := coverageFixture()
	// 同一护士当日出现在两个列表
	assignments[days[0]].Add(model.ShiftOff, nurses[0].ID)

	report := AnalyzeCoverage(nurses, days, assignments, settings)

	var foundDuplicate bool
	for _, issue := range report.Issues {
		if issue.Kind == "duplicate" && issue.NurseID == nurses[0].ID {
			foundDuplicate = true
		}
	}
	if !foundDuplicate {
		t.Error("expected a duplicate issue for double-listed nurse")
	}
}

func TestAnalyzeCoverage_MissingDate(t *testing.T) {
	nurses, days, assignments, settings := coverageFixture()
	delete(assignments, days[1])

	report := AnalyzeCoverage(nurses, days, assignments, settings)

	var foundMissingDate bool
	for _, issue := range report.Issues {
		if issue.Kind == "missing" && issue.Date == days[1] && issue.NurseID == uuid.Nil {
			foundMissingDate = true
		}
	}
	if !foundMissingDate {
		t.Error("expected a missing issue for the absent date")
	}
}
