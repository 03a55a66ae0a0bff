// Package model 定义护士排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// DedicatedRole 专职角色：护士可固定承担夜班或责任组长班
type DedicatedRole string

const (
	DedicatedNone   DedicatedRole = ""       // 无专职角色
	DedicatedNight  DedicatedRole = "night"  // 专职夜班
	DedicatedCharge DedicatedRole = "charge" // 专职责任组长
)

// Shift 返回专职角色对应的班次类型，仅对非空角色有意义
func (r DedicatedRole) Shift() ShiftType {
	if r == DedicatedCharge {
		return ShiftCharge
	}
	return ShiftNight
}

// PersonalRules 护士个人规则
type PersonalRules struct {
	// 休假日期列表（YYYY-MM-DD）
	VacationDates []string `json:"vacation_dates,omitempty"`

	// 选择性排班：非空时只排列表内的班次类型（charge 始终豁免）
	SelectedShiftsOnly []ShiftType `json:"selected_shifts_only,omitempty"`

	// 专职角色
	DedicatedRole DedicatedRole `json:"dedicated_role,omitempty"`
}

// Nurse 护士
// 对单次生成而言是不可变输入
type Nurse struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	OrgID             uuid.UUID     `json:"org_id" db:"org_id"`
	Name              string        `json:"name" db:"name"`
	Email             string        `json:"email,omitempty" db:"email"`
	YearsOfExperience int           `json:"years_of_experience" db:"years_of_experience"`
	PersonalRules     PersonalRules `json:"personal_rules" db:"personal_rules"`
	Status            string        `json:"status" db:"status"` // active/inactive/leave
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive 检查护士是否在职
func (n *Nurse) IsActive() bool {
	return n.Status == "" || n.Status == "active"
}

// IsDedicated 检查是否有专职角色
func (n *Nurse) IsDedicated() bool {
	return n.PersonalRules.DedicatedRole != DedicatedNone
}

// OnVacation 检查某日期是否在休假列表中
func (n *Nurse) OnVacation(date string) bool {
	for _, d := range n.PersonalRules.VacationDates {
		if d == date {
			return true
		}
	}
	return false
}

// AllowsShift 检查选择性排班规则是否允许某班次
// charge 作为管理附加班次，始终豁免选择性排班限制
func (n *Nurse) AllowsShift(shift ShiftType) bool {
	selected := n.PersonalRules.SelectedShiftsOnly
	if len(selected) == 0 || shift == ShiftCharge {
		return true
	}
	for _, s := range selected {
		if s == shift {
			return true
		}
	}
	return false
}
