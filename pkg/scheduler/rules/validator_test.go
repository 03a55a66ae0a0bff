package rules

import (
	"testing"

	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

func testSettings() *model.OrganizationSettings {
	s := model.DefaultSettings()
	return &s
}

// fillDays 将护士在连续日期上排入指定班次
func fillDays(assignments model.AssignmentMap, nurseID uuid.UUID, start string, shifts ...model.ShiftType) {
	date := start
	for _, shift := range shifts {
		if assignments[date] == nil {
			assignments[date] = model.NewDailyAssignment()
		}
		assignments[date].Add(shift, nurseID)
		date = model.NextDate(date)
	}
}

func TestValidate_Vacation(t *testing.T) {
	v := NewValidator(testSettings())
	nurse := &model.Nurse{
		ID:                uuid.New(),
		YearsOfExperience: 5,
		PersonalRules:     model.PersonalRules{VacationDates: []string{"2026-01-15"}},
	}

	result := v.Validate(nurse, "2026-01-15", model.ShiftDay, model.AssignmentMap{})
	if result.Valid {
		t.Fatal("assignment on vacation date should be rejected")
	}
	if result.ViolatedRule != RuleVacation {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleVacation)
	}

	result = v.Validate(nurse, "2026-01-16", model.ShiftDay, model.AssignmentMap{})
	if !result.Valid {
		t.Errorf("non-vacation date should pass, got %s", result.ViolatedRule)
	}
}

func TestValidate_SelectedShifts(t *testing.T) {
	v := NewValidator(testSettings())
	nurse := &model.Nurse{
		ID:                uuid.New(),
		YearsOfExperience: 5,
		PersonalRules:     model.PersonalRules{SelectedShiftsOnly: []model.ShiftType{model.ShiftNight}},
	}

	if result := v.Validate(nurse, "2026-01-10", model.ShiftDay, model.AssignmentMap{}); result.Valid {
		t.Error("day shift outside selection should be rejected")
	} else if result.ViolatedRule != RuleSelectedShifts {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleSelectedShifts)
	}

	if result := v.Validate(nurse, "2026-01-10", model.ShiftNight, model.AssignmentMap{}); !result.Valid {
		t.Errorf("selected night shift should pass, got %s", result.ViolatedRule)
	}

	// charge 豁免选择性排班
	if result := v.Validate(nurse, "2026-01-10", model.ShiftCharge, model.AssignmentMap{}); !result.Valid {
		t.Errorf("charge should bypass selection, got %s", result.ViolatedRule)
	}
}

func TestValidate_ChargeMinYears(t *testing.T) {
	settings := testSettings()
	settings.ChargeSettings.MinYearsRequired = 3
	v := NewValidator(settings)

	junior := &model.Nurse{ID: uuid.New(), YearsOfExperience: 2}
	senior := &model.Nurse{ID: uuid.New(), YearsOfExperience: 3}

	if result := v.Validate(junior, "2026-01-10", model.ShiftCharge, model.AssignmentMap{}); result.Valid {
		t.Error("junior nurse should not take charge shift")
	} else if result.ViolatedRule != RuleChargeMinYears {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleChargeMinYears)
	}

	// 恰好达到最低年资
	if result := v.Validate(senior, "2026-01-10", model.ShiftCharge, model.AssignmentMap{}); !result.Valid {
		t.Errorf("nurse at exact minimum years should pass, got %s", result.ViolatedRule)
	}

	// 年资限制只作用于 charge
	if result := v.Validate(junior, "2026-01-10", model.ShiftNight, model.AssignmentMap{}); !result.Valid {
		t.Errorf("junior nurse night shift should pass, got %s", result.ViolatedRule)
	}
}

func TestValidate_MaxConsecutiveWorkDays(t *testing.T) {
	settings := testSettings()
	settings.MaxConsecutiveWorkDays = 5
	v := NewValidator(settings)

	nurse := &model.Nurse{ID: uuid.New(), YearsOfExperience: 5}
	assignments := model.AssignmentMap{}
	fillDays(assignments, nurse.ID, "2026-01-05",
		model.ShiftDay, model.ShiftDay, model.ShiftEvening, model.ShiftDay, model.ShiftDay)

	// 已连续工作 5 天，第 6 天应被拒绝
	if result := v.Validate(nurse, "2026-01-10", model.ShiftDay, assignments); result.Valid {
		t.Error("sixth consecutive work day should be rejected")
	} else if result.ViolatedRule != RuleMaxConsecutiveWorkDays {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleMaxConsecutiveWorkDays)
	}

	// 中间休息一天后重新计数
	assignments["2026-01-10"] = model.NewDailyAssignment()
	assignments["2026-01-10"].Add(model.ShiftOff, nurse.ID)
	if result := v.Validate(nurse, "2026-01-11", model.ShiftDay, assignments); !result.Valid {
		t.Errorf("work day after off day should pass, got %s", result.ViolatedRule)
	}
}

func TestValidate_MaxConsecutiveNightDays(t *testing.T) {
	settings := testSettings()
	settings.MaxConsecutiveNightDays = 3
	v := NewValidator(settings)

	nurse := &model.Nurse{ID: uuid.New(), YearsOfExperience: 5}
	assignments := model.AssignmentMap{}
	fillDays(assignments, nurse.ID, "2026-01-05",
		model.ShiftNight, model.ShiftNight, model.ShiftNight)

	if result := v.Validate(nurse, "2026-01-08", model.ShiftNight, assignments); result.Valid {
		t.Error("fourth consecutive night should be rejected")
	} else if result.ViolatedRule != RuleMaxConsecutiveNightDays {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleMaxConsecutiveNightDays)
	}

	// charge 计入 night 连续性
	assignments2 := model.AssignmentMap{}
	fillDays(assignments2, nurse.ID, "2026-01-05",
		model.ShiftNight, model.ShiftCharge, model.ShiftNight)
	if result := v.Validate(nurse, "2026-01-08", model.ShiftCharge, assignments2); result.Valid {
		t.Error("charge should count toward night consecutive limit")
	}

	// 未达上限时允许继续排 night
	assignments3 := model.AssignmentMap{}
	fillDays(assignments3, nurse.ID, "2026-01-05", model.ShiftNight, model.ShiftNight)
	if result := v.Validate(nurse, "2026-01-07", model.ShiftNight, assignments3); !result.Valid {
		t.Errorf("third consecutive night within limit should pass, got %s", result.ViolatedRule)
	}
}

func TestCheckTransition_ForbiddenPairs(t *testing.T) {
	nurseID := uuid.New()

	tests := []struct {
		prev    model.ShiftType
		next    model.ShiftType
		allowed bool
	}{
		{model.ShiftNight, model.ShiftDay, false},
		{model.ShiftNight, model.ShiftEvening, false},
		{model.ShiftNight, model.ShiftCharge, false},
		{model.ShiftNight, model.ShiftNight, true},
		{model.ShiftEvening, model.ShiftDay, false},
		{model.ShiftEvening, model.ShiftEvening, true},
		{model.ShiftEvening, model.ShiftNight, true},
		{model.ShiftCharge, model.ShiftNight, false},
		{model.ShiftCharge, model.ShiftDay, true},
		{model.ShiftDay, model.ShiftNight, true},
		{model.ShiftOff, model.ShiftDay, true},
	}

	for _, tt := range tests {
		assignments := model.AssignmentMap{"2026-01-09": model.NewDailyAssignment()}
		assignments["2026-01-09"].Add(tt.prev, nurseID)

		result := CheckTransition(nurseID, "2026-01-10", tt.next, assignments)
		if result.Valid != tt.allowed {
			t.Errorf("transition %s -> %s: valid = %v, want %v", tt.prev, tt.next, result.Valid, tt.allowed)
		}
		if !tt.allowed && result.ViolatedRule != RuleForbiddenTransition {
			t.Errorf("transition %s -> %s: rule = %s, want %s", tt.prev, tt.next, result.ViolatedRule, RuleForbiddenTransition)
		}
	}
}

func TestCheckTransition_NoHistory(t *testing.T) {
	// 前一日无排班记录（如月初）时不限制
	result := CheckTransition(uuid.New(), "2026-01-01", model.ShiftDay, model.AssignmentMap{})
	if !result.Valid {
		t.Errorf("transition without history should pass, got %s", result.ViolatedRule)
	}
}

func TestValidate_ProhibitNOD(t *testing.T) {
	settings := testSettings()
	settings.ProhibitNOD = true
	settings.ProhibitEOD = false
	v := NewValidator(settings)

	nurse := &model.Nurse{ID: uuid.New(), YearsOfExperience: 5}
	assignments := model.AssignmentMap{}
	fillDays(assignments, nurse.ID, "2026-01-08", model.ShiftNight, model.ShiftOff)

	if result := v.Validate(nurse, "2026-01-10", model.ShiftDay, assignments); result.Valid {
		t.Error("Night-Off-Day pattern should be rejected when prohibited")
	} else if result.ViolatedRule != RuleProhibitNOD {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleProhibitNOD)
	}

	// 关闭开关后允许
	settings.ProhibitNOD = false
	if result := v.Validate(nurse, "2026-01-10", model.ShiftDay, assignments); !result.Valid {
		t.Errorf("NOD should pass when toggle disabled, got %s", result.ViolatedRule)
	}
}

func TestValidate_ProhibitEOD(t *testing.T) {
	settings := testSettings()
	settings.ProhibitEOD = true
	v := NewValidator(settings)

	nurse := &model.Nurse{ID: uuid.New(), YearsOfExperience: 5}
	assignments := model.AssignmentMap{}
	fillDays(assignments, nurse.ID, "2026-01-08", model.ShiftEvening, model.ShiftOff)

	if result := v.Validate(nurse, "2026-01-10", model.ShiftDay, assignments); result.Valid {
		t.Error("Evening-Off-Day pattern should be rejected when prohibited")
	} else if result.ViolatedRule != RuleProhibitEOD {
		t.Errorf("violated rule = %s, want %s", result.ViolatedRule, RuleProhibitEOD)
	}

	// 模式只针对 day 班
	if result := v.Validate(nurse, "2026-01-10", model.ShiftEvening, assignments); !result.Valid {
		t.Errorf("evening after E-Off should pass, got %s", result.ViolatedRule)
	}
}

func TestValidate_Order(t *testing.T) {
	// 同时违反休假与年资规则时，休假规则优先
	settings := testSettings()
	settings.ChargeSettings.MinYearsRequired = 3
	v := NewValidator(settings)

	nurse := &model.Nurse{
		ID:                uuid.New(),
		YearsOfExperience: 1,
		PersonalRules:     model.PersonalRules{VacationDates: []string{"2026-01-10"}},
	}

	result := v.Validate(nurse, "2026-01-10", model.ShiftCharge, model.AssignmentMap{})
	if result.ViolatedRule != RuleVacation {
		t.Errorf("violated rule = %s, want %s (vacation checked first)", result.ViolatedRule, RuleVacation)
	}
}
