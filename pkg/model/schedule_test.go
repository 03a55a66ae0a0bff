package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestDailyAssignment_AddRemove(t *testing.T) {
	da := NewDailyAssignment()
	nurseID := uuid.New()

	da.Add(ShiftNight, nurseID)

	if !da.Contains(nurseID) {
		t.Fatal("nurse should be present after Add")
	}
	shift, ok := da.ShiftOf(nurseID)
	if !ok || shift != ShiftNight {
		t.Errorf("ShiftOf = %s, want night", shift)
	}

	if !da.Remove(ShiftNight, nurseID) {
		t.Error("Remove should return true for present nurse")
	}
	if da.Contains(nurseID) {
		t.Error("nurse should be absent after Remove")
	}
	if da.Remove(ShiftNight, nurseID) {
		t.Error("Remove should return false for absent nurse")
	}
}

func TestDailyAssignment_Clone(t *testing.T) {
	da := NewDailyAssignment()
	a, b := uuid.New(), uuid.New()
	da.Add(ShiftDay, a)
	da.Add(ShiftOff, b)

	clone := da.Clone()
	clone.Add(ShiftDay, uuid.New())
	clone.Remove(ShiftOff, b)

	if len(da.Day) != 1 {
		t.Errorf("original day list mutated: len = %d", len(da.Day))
	}
	if len(da.Off) != 1 {
		t.Errorf("original off list mutated: len = %d", len(da.Off))
	}
}

func TestAssignmentMap_Clone(t *testing.T) {
	nurseID := uuid.New()
	m := AssignmentMap{
		"2026-01-01": NewDailyAssignment(),
	}
	m["2026-01-01"].Add(ShiftEvening, nurseID)

	clone := m.Clone()
	clone["2026-01-01"].Remove(ShiftEvening, nurseID)
	clone["2026-01-02"] = NewDailyAssignment()

	if shift, ok := m.ShiftOn(nurseID, "2026-01-01"); !ok || shift != ShiftEvening {
		t.Error("original map mutated by clone changes")
	}
	if _, ok := m["2026-01-02"]; ok {
		t.Error("original map gained date added to clone")
	}
}

func TestNurse_AllowsShift(t *testing.T) {
	nurse := &Nurse{
		ID: uuid.New(),
		PersonalRules: PersonalRules{
			SelectedShiftsOnly: []ShiftType{ShiftDay, ShiftEvening},
		},
	}

	if !nurse.AllowsShift(ShiftDay) {
		t.Error("selected shift should be allowed")
	}
	if nurse.AllowsShift(ShiftNight) {
		t.Error("unselected shift should be rejected")
	}
	// charge 始终豁免选择性排班限制
	if !nurse.AllowsShift(ShiftCharge) {
		t.Error("charge should bypass selected-shifts restriction")
	}

	unrestricted := &Nurse{ID: uuid.New()}
	for _, shift := range WorkShiftTypes {
		if !unrestricted.AllowsShift(shift) {
			t.Errorf("nurse without selection should allow %s", shift)
		}
	}
}

func TestNurse_OnVacation(t *testing.T) {
	nurse := &Nurse{
		PersonalRules: PersonalRules{VacationDates: []string{"2026-01-10", "2026-01-11"}},
	}

	if !nurse.OnVacation("2026-01-10") {
		t.Error("vacation date should match")
	}
	if nurse.OnVacation("2026-01-12") {
		t.Error("non-vacation date should not match")
	}
}

func TestOrganizationSettings_RequiredCount(t *testing.T) {
	settings := DefaultSettings()

	if got := settings.RequiredCount(ShiftDay); got != 3 {
		t.Errorf("day required = %d, want 3", got)
	}
	if got := settings.RequiredCount(ShiftNight); got != 2 {
		t.Errorf("night required = %d, want 2", got)
	}
	// charge 每日固定一人
	if got := settings.RequiredCount(ShiftCharge); got != 1 {
		t.Errorf("charge required = %d, want 1", got)
	}
	if got := settings.RequiredCount(ShiftOff); got != 0 {
		t.Errorf("off required = %d, want 0", got)
	}
}
