package holiday

// fallbackHolidays 内置韩国法定节假日静态表
// API 不可用时的兜底数据，按年度滚动维护
var fallbackHolidays = map[string]string{
	// 2024
	"2024-01-01": "신정",
	"2024-02-09": "설날 연휴",
	"2024-02-10": "설날",
	"2024-02-11": "설날 연휴",
	"2024-02-12": "대체공휴일",
	"2024-03-01": "삼일절",
	"2024-04-10": "국회의원선거일",
	"2024-05-05": "어린이날",
	"2024-05-06": "대체공휴일",
	"2024-05-15": "부처님오신날",
	"2024-06-06": "현충일",
	"2024-08-15": "광복절",
	"2024-09-16": "추석 연휴",
	"2024-09-17": "추석",
	"2024-09-18": "추석 연휴",
	"2024-10-03": "개천절",
	"2024-10-09": "한글날",
	"2024-12-25": "크리스마스",

	// 2025
	"2025-01-01": "신정",
	"2025-01-28": "설날 연휴",
	"2025-01-29": "설날",
	"2025-01-30": "설날 연휴",
	"2025-03-01": "삼일절",
	"2025-05-05": "어린이날",
	"2025-05-06": "부처님오신날",
	"2025-06-06": "현충일",
	"2025-08-15": "광복절",
	"2025-10-03": "개천절",
	"2025-10-05": "추석 연휴",
	"2025-10-06": "추석",
	"2025-10-07": "추석 연휴",
	"2025-10-08": "대체공휴일",
	"2025-10-09": "한글날",
	"2025-12-25": "크리스마스",

	// 2026
	"2026-01-01": "신정",
	"2026-02-16": "설날 연휴",
	"2026-02-17": "설날",
	"2026-02-18": "설날 연휴",
	"2026-03-01": "삼일절",
	"2026-03-02": "대체공휴일",
	"2026-05-05": "어린이날",
	"2026-05-24": "부처님오신날",
	"2026-05-25": "대체공휴일",
	"2026-06-06": "현충일",
	"2026-08-15": "광복절",
	"2026-08-17": "대체공휴일",
	"2026-09-24": "추석 연휴",
	"2026-09-25": "추석",
	"2026-09-26": "추석 연휴",
	"2026-10-03": "개천절",
	"2026-10-05": "대체공휴일",
	"2026-10-09": "한글날",
	"2026-12-25": "크리스마스",
}
