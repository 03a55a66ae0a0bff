// Package constraints 排班规则目录
// 向前端暴露引擎支持的全部规则及可配置参数
package constraints

import "github.com/banbiao/banbiao/pkg/scheduler/rules"

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Scope       string      `json:"scope"`  // personal 个人规则, organization 组织规则
	Source      string      `json:"source"` // 规则配置来源字段
	Description string      `json:"description"`
	Params      []RuleParam `json:"params"`
}

// LibraryResponse 规则目录响应
type LibraryResponse struct {
	Library []RuleDefinition `json:"library"`
}

// GetLibrary 获取完整的规则目录
// 引擎按此顺序逐条校验，任一规则不通过即排班无效
func GetLibrary() []RuleDefinition {
	return []RuleDefinition{
		{
			Name:        rules.RuleVacation,
			DisplayName: "休假保护",
			Scope:       "personal",
			Source:      "personal_rules.vacation_days",
			Description: "休假日只能安排休息班。任何生成与换班操作都不得占用休假日。",
			Params: []RuleParam{
				{Name: "vacation_days", Type: "array", Description: "休假日期列表(YYYY-MM-DD)"},
			},
		},
		{
			Name:        rules.RuleSelectedShifts,
			DisplayName: "可上班次",
			Scope:       "personal",
			Source:      "personal_rules.selected_shifts",
			Description: "护士只能被安排在其勾选的班次类型上。责任组长班不受此限制，由年资规则单独把关。",
			Params: []RuleParam{
				{Name: "selected_shifts", Type: "array", Description: "可上班次类型列表"},
			},
		},
		{
			Name:        rules.RuleChargeMinYears,
			DisplayName: "责任组长最低年资",
			Scope:       "organization",
			Source:      "settings.charge_settings.min_years_required",
			Description: "责任组长班只能由年资达到组织要求的护士担任。",
			Params: []RuleParam{
				{Name: "min_years_required", Type: "int", Description: "最低年资(年)", Default: "3", Min: "0", Max: "30"},
			},
		},
		{
			Name:        rules.RuleMaxConsecutiveWorkDays,
			DisplayName: "最大连续工作天数",
			Scope:       "organization",
			Source:      "settings.max_consecutive_work_days",
			Description: "限制连续工作天数，统计含本次安排在内向前回溯的连续工作日。",
			Params: []RuleParam{
				{Name: "max_consecutive_work_days", Type: "int", Description: "最大连续天数", Default: "5", Min: "1", Max: "10"},
			},
		},
		{
			Name:        rules.RuleMaxConsecutiveNightDays,
			DisplayName: "最大连续夜班天数",
			Scope:       "organization",
			Source:      "settings.max_consecutive_night_days",
			Description: "限制连续夜班天数。责任组长班计入夜班连续统计。",
			Params: []RuleParam{
				{Name: "max_consecutive_night_days", Type: "int", Description: "最大连续夜班天数", Default: "3", Min: "1", Max: "7"},
			},
		},
		{
			Name:        rules.RuleForbiddenTransition,
			DisplayName: "禁止班次衔接",
			Scope:       "organization",
			Source:      "内置",
			Description: "固定的不安全衔接：夜班后不得接白班、小夜班或责任组长班；小夜班后不得接白班；责任组长班后不得接夜班。",
			Params:      []RuleParam{},
		},
		{
			Name:        rules.RuleProhibitNOD,
			DisplayName: "禁止夜-休-白模式",
			Scope:       "organization",
			Source:      "settings.prohibit_nod",
			Description: "禁止夜班休一天后直接上白班，保证夜班后有足够恢复时间。",
			Params: []RuleParam{
				{Name: "prohibit_nod", Type: "bool", Description: "是否启用", Default: "true"},
			},
		},
		{
			Name:        rules.RuleProhibitEOD,
			DisplayName: "禁止小夜-休-白模式",
			Scope:       "organization",
			Source:      "settings.prohibit_eod",
			Description: "禁止小夜班休一天后直接上白班。",
			Params: []RuleParam{
				{Name: "prohibit_eod", Type: "bool", Description: "是否启用", Default: "false"},
			},
		},
	}
}
