// Package model 定义护士排班引擎的核心数据模型
package model

// ShiftType 班次类型
type ShiftType string

const (
	ShiftDay     ShiftType = "day"     // 白班
	ShiftEvening ShiftType = "evening" // 小夜班
	ShiftNight   ShiftType = "night"   // 大夜班
	ShiftCharge  ShiftType = "charge"  // 责任组长班
	ShiftOff     ShiftType = "off"     // 休息
)

// WorkShiftTypes 工作班次（不含休息），按生成器的填充优先级排列：
// night 和 charge 的资格与衔接约束最紧，优先填充
var WorkShiftTypes = []ShiftType{ShiftNight, ShiftCharge, ShiftEvening, ShiftDay}

// AllShiftTypes 全部班次类型（含休息）
var AllShiftTypes = []ShiftType{ShiftDay, ShiftEvening, ShiftNight, ShiftCharge, ShiftOff}

// IsWork 检查是否为工作班次
func (s ShiftType) IsWork() bool {
	return s != ShiftOff && s != ""
}

// Valid 检查班次类型是否合法
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftDay, ShiftEvening, ShiftNight, ShiftCharge, ShiftOff:
		return true
	}
	return false
}

// ShiftTime 班次时间定义
type ShiftTime struct {
	Start string  `json:"start"` // HH:MM
	End   string  `json:"end"`   // HH:MM
	Hours float64 `json:"hours"` // 工作时长（小时）
}

// ShiftTimes 各班次的固定时间表
// night 为跨日班次：22:30 开始，次日 07:30 结束
var ShiftTimes = map[ShiftType]ShiftTime{
	ShiftDay:     {Start: "07:00", End: "15:30", Hours: 8.5},
	ShiftEvening: {Start: "15:00", End: "23:00", Hours: 8},
	ShiftNight:   {Start: "22:30", End: "07:30", Hours: 9},
	ShiftCharge:  {Start: "10:00", End: "18:30", Hours: 8.5},
	ShiftOff:     {Start: "", End: "", Hours: 0},
}

// Hours 返回班次时长（小时）
func (s ShiftType) Hours() float64 {
	return ShiftTimes[s].Hours
}

// DayKind 日期类别，用于选择权重表
type DayKind string

const (
	DayKindWeekday DayKind = "weekday" // 工作日
	DayKindWeekend DayKind = "weekend" // 周末
	DayKindHoliday DayKind = "holiday" // 法定节假日
)

// Weights 劳动强度权重表：(日期类别, 班次) → 权重系数
// 夜班与周末/节假日班次权重更高，体现疲劳度与不受欢迎程度
var Weights = map[DayKind]map[ShiftType]float64{
	DayKindWeekday: {
		ShiftDay:     1.0,
		ShiftEvening: 1.0,
		ShiftNight:   1.5,
		ShiftCharge:  1.0,
	},
	DayKindWeekend: {
		ShiftDay:     1.5,
		ShiftEvening: 1.5,
		ShiftNight:   2.0,
		ShiftCharge:  1.5,
	},
	DayKindHoliday: {
		ShiftDay:     1.5,
		ShiftEvening: 1.5,
		ShiftNight:   2.0,
		ShiftCharge:  1.5,
	},
}

// WeightFor 返回某日期类别下某班次的权重系数
func WeightFor(kind DayKind, shift ShiftType) float64 {
	if !shift.IsWork() {
		return 0
	}
	if table, ok := Weights[kind]; ok {
		if w, ok := table[shift]; ok {
			return w
		}
	}
	return 1.0
}
