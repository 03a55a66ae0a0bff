// Package model 定义护士排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyAssignment 单日排班：五个互斥的护士 ID 列表
// 不变式：一次生成完成后，每名护士在每个日期恰好出现在一个列表中
type DailyAssignment struct {
	Day     []uuid.UUID `json:"day"`
	Evening []uuid.UUID `json:"evening"`
	Night   []uuid.UUID `json:"night"`
	Charge  []uuid.UUID `json:"charge"`
	Off     []uuid.UUID `json:"off"`
}

// NewDailyAssignment 创建空的单日排班
func NewDailyAssignment() *DailyAssignment {
	return &DailyAssignment{
		Day:     make([]uuid.UUID, 0),
		Evening: make([]uuid.UUID, 0),
		Night:   make([]uuid.UUID, 0),
		Charge:  make([]uuid.UUID, 0),
		Off:     make([]uuid.UUID, 0),
	}
}

// List 返回某班次类型的护士列表
func (d *DailyAssignment) List(shift ShiftType) []uuid.UUID {
	switch shift {
	case ShiftDay:
		return d.Day
	case ShiftEvening:
		return d.Evening
	case ShiftNight:
		return d.Night
	case ShiftCharge:
		return d.Charge
	case ShiftOff:
		return d.Off
	}
	return nil
}

// Add 将护士加入某班次列表
func (d *DailyAssignment) Add(shift ShiftType, nurseID uuid.UUID) {
	switch shift {
	case ShiftDay:
		d.Day = append(d.Day, nurseID)
	case ShiftEvening:
		d.Evening = append(d.Evening, nurseID)
	case ShiftNight:
		d.Night = append(d.Night, nurseID)
	case ShiftCharge:
		d.Charge = append(d.Charge, nurseID)
	case ShiftOff:
		d.Off = append(d.Off, nurseID)
	}
}

// Remove 将护士从某班次列表移除，返回是否找到
func (d *DailyAssignment) Remove(shift ShiftType, nurseID uuid.UUID) bool {
	list := d.List(shift)
	for i, id := range list {
		if id == nurseID {
			trimmed := append(list[:i], list[i+1:]...)
			switch shift {
			case ShiftDay:
				d.Day = trimmed
			case ShiftEvening:
				d.Evening = trimmed
			case ShiftNight:
				d.Night = trimmed
			case ShiftCharge:
				d.Charge = trimmed
			case ShiftOff:
				d.Off = trimmed
			}
			return true
		}
	}
	return false
}

// ShiftOf 返回护士在当日的班次类型
func (d *DailyAssignment) ShiftOf(nurseID uuid.UUID) (ShiftType, bool) {
	for _, shift := range AllShiftTypes {
		for _, id := range d.List(shift) {
			if id == nurseID {
				return shift, true
			}
		}
	}
	return "", false
}

// Contains 检查护士是否已出现在当日任意列表
func (d *DailyAssignment) Contains(nurseID uuid.UUID) bool {
	_, ok := d.ShiftOf(nurseID)
	return ok
}

// Clone 深拷贝单日排班
func (d *DailyAssignment) Clone() *DailyAssignment {
	clone := NewDailyAssignment()
	for _, shift := range AllShiftTypes {
		for _, id := range d.List(shift) {
			clone.Add(shift, id)
		}
	}
	return clone
}

// AssignmentMap 月度排班表：日期（YYYY-MM-DD）→ 单日排班
type AssignmentMap map[string]*DailyAssignment

// Clone 深拷贝月度排班表
func (m AssignmentMap) Clone() AssignmentMap {
	clone := make(AssignmentMap, len(m))
	for date, da := range m {
		clone[date] = da.Clone()
	}
	return clone
}

// ShiftOn 返回护士在某日期的班次类型
func (m AssignmentMap) ShiftOn(nurseID uuid.UUID, date string) (ShiftType, bool) {
	da, ok := m[date]
	if !ok {
		return "", false
	}
	return da.ShiftOf(nurseID)
}

// NurseScore 生成期累加器：单次生成过程中逐班次更新
type NurseScore struct {
	NurseID           uuid.UUID `json:"nurse_id"`
	WeightedHours     float64   `json:"weighted_hours"`
	ChargeCount       int       `json:"charge_count"`
	YearsOfExperience int       `json:"years_of_experience"`
	Dedicated         bool      `json:"dedicated"`
}

// FairnessNotApplicable 专职护士的公平性分数哨兵值
const FairnessNotApplicable = -1

// NurseStatistics 单名护士的月度统计
type NurseStatistics struct {
	TotalHours    float64           `json:"total_hours"`
	WeightedHours float64           `json:"weighted_hours"`
	ChargeCount   int               `json:"charge_count"`
	ShiftCounts   map[ShiftType]int `json:"shift_counts"`
	FairnessScore float64           `json:"fairness_score"` // 专职护士为 -1
	Dedicated     bool              `json:"dedicated"`
}

// Violation 规则违反记录：槽位无法合法填满时追加
type Violation struct {
	NurseID uuid.UUID `json:"nurse_id"` // understaffed 时为零值
	Date    string    `json:"date"`
	Rule    string    `json:"rule"`
	Reason  string    `json:"reason"`
}

// ScheduleStatus 排班表状态
type ScheduleStatus string

const (
	StatusDraft     ScheduleStatus = "draft"
	StatusPublished ScheduleStatus = "published"
)

// Schedule 月度排班表：单次生成的完整产出
type Schedule struct {
	ID            uuid.UUID                      `json:"id" db:"id"`
	OrgID         uuid.UUID                      `json:"org_id" db:"org_id"`
	YearMonth     string                         `json:"year_month" db:"year_month"` // YYYY-MM
	Assignments   AssignmentMap                  `json:"assignments" db:"assignments"`
	Statistics    map[uuid.UUID]*NurseStatistics `json:"statistics" db:"statistics"`
	Violations    []Violation                    `json:"violations" db:"violations"`
	FairnessIndex float64                        `json:"fairness_index" db:"fairness_index"`
	Status        ScheduleStatus                 `json:"status" db:"status"`
	CreatedAt     time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time                      `json:"updated_at" db:"updated_at"`
}

// SwapShift 换班请求中的一个班位
type SwapShift struct {
	Date string    `json:"date"` // YYYY-MM-DD
	Type ShiftType `json:"type"`
}

// SwapRequestStatus 换班请求状态
type SwapRequestStatus string

const (
	SwapPending     SwapRequestStatus = "pending"
	SwapApproved    SwapRequestStatus = "approved"
	SwapRejected    SwapRequestStatus = "rejected"
	SwapAdminReview SwapRequestStatus = "admin_review"
)

// SwapRequest 换班请求
type SwapRequest struct {
	ID                    uuid.UUID         `json:"id" db:"id"`
	OrgID                 uuid.UUID         `json:"org_id" db:"org_id"`
	RequesterID           uuid.UUID         `json:"requester_id" db:"requester_id"`
	TargetID              uuid.UUID         `json:"target_id" db:"target_id"`
	RequesterShift        SwapShift         `json:"requester_shift" db:"requester_shift"`
	TargetShift           SwapShift         `json:"target_shift" db:"target_shift"`
	Status                SwapRequestStatus `json:"status" db:"status"`
	RequiresAdminApproval bool              `json:"requires_admin_approval" db:"requires_admin_approval"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}
