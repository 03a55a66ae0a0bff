// Package model 定义护士排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// SimultaneousStaff 各班次同时在岗人数要求
// charge 固定为每日 1 人，不在此配置
type SimultaneousStaff struct {
	Day     int `json:"day"`
	Evening int `json:"evening"`
	Night   int `json:"night"`
}

// ChargeSettings 责任组长班配置
type ChargeSettings struct {
	// 强度权重系数（1.0 ~ 1.5），叠加在日期权重之上
	IntensityWeight float64 `json:"intensity_weight"`

	// 最低年资要求（年）
	MinYearsRequired int `json:"min_years_required"`
}

// OrganizationSettings 组织排班规则参数
// 生成期间只读
type OrganizationSettings struct {
	SimultaneousStaff      SimultaneousStaff `json:"simultaneous_staff"`
	MaxConsecutiveWorkDays int               `json:"max_consecutive_work_days"`
	MaxConsecutiveNightDays int              `json:"max_consecutive_night_days"`
	MonthlyOffDays         int               `json:"monthly_off_days"`
	ChargeSettings         ChargeSettings    `json:"charge_settings"`
	ProhibitNOD            bool              `json:"prohibit_nod"` // 禁止 Night-Off-Day 模式
	ProhibitEOD            bool              `json:"prohibit_eod"` // 禁止 Evening-Off-Day 模式
}

// RequiredCount 返回某班次类型的所需人数
func (s *OrganizationSettings) RequiredCount(shift ShiftType) int {
	switch shift {
	case ShiftDay:
		return s.SimultaneousStaff.Day
	case ShiftEvening:
		return s.SimultaneousStaff.Evening
	case ShiftNight:
		return s.SimultaneousStaff.Night
	case ShiftCharge:
		return 1 // 每日固定一名责任组长
	default:
		return 0
	}
}

// DefaultSettings 返回默认组织规则
func DefaultSettings() OrganizationSettings {
	return OrganizationSettings{
		SimultaneousStaff:       SimultaneousStaff{Day: 3, Evening: 3, Night: 2},
		MaxConsecutiveWorkDays:  5,
		MaxConsecutiveNightDays: 3,
		MonthlyOffDays:          8,
		ChargeSettings:          ChargeSettings{IntensityWeight: 1.2, MinYearsRequired: 3},
		ProhibitNOD:             true,
		ProhibitEOD:             false,
	}
}

// Organization 组织/病区
type Organization struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	Name      string               `json:"name" db:"name"`
	AdminID   uuid.UUID            `json:"admin_id" db:"admin_id"`
	Settings  OrganizationSettings `json:"settings" db:"settings"`
	ShareLink string               `json:"share_link,omitempty" db:"share_link"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" db:"updated_at"`
}
