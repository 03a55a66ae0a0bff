// Package model 定义护士排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"
)

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// YearMonthLayout 年月格式 YYYY-MM
const YearMonthLayout = "2006-01"

// ParseYearMonth 解析 YYYY-MM 字符串
func ParseYearMonth(yearMonth string) (time.Time, error) {
	t, err := time.Parse(YearMonthLayout, yearMonth)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的年月格式 %q: %w", yearMonth, err)
	}
	return t, nil
}

// DaysInMonth 返回某年月的全部日期（YYYY-MM-DD，按自然日升序）
func DaysInMonth(yearMonth string) ([]string, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	var days []string
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

// PrevDate 返回前一天日期
func PrevDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// NextDate 返回后一天日期
func NextDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// IsWeekend 检查日期是否为周末
func IsWeekend(date string) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// HolidaySet 节假日集合（YYYY-MM-DD → 是否节假日）
// 由外部节假日服务提供，引擎只读
type HolidaySet map[string]bool

// NewHolidaySet 从日期列表构建节假日集合
func NewHolidaySet(dates []string) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// Contains 检查日期是否为节假日
func (h HolidaySet) Contains(date string) bool {
	return h[date]
}

// KindOf 返回日期类别：节假日优先于周末判断
func (h HolidaySet) KindOf(date string) DayKind {
	if h.Contains(date) {
		return DayKindHoliday
	}
	if IsWeekend(date) {
		return DayKindWeekend
	}
	return DayKindWeekday
}
