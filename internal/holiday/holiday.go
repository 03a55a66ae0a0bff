// Package holiday 提供法定节假日查询
// 优先从 Nager 公共假日 API 获取，失败时回退到内置静态表
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// apiBaseURL Nager 公共假日 API
const apiBaseURL = "https://date.nager.at/api/v3/PublicHolidays"

// Holiday 单个节假日
type Holiday struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

// Service 节假日服务
// 按年度缓存，进程内重复查询不再请求 API
type Service struct {
	client      *http.Client
	baseURL     string
	countryCode string

	mu    sync.RWMutex
	cache map[int]map[string]string // year → date → name
}

// NewService 创建节假日服务
func NewService(countryCode string) *Service {
	if countryCode == "" {
		countryCode = "KR"
	}
	return &Service{
		client:      &http.Client{Timeout: 10 * time.Second},
		baseURL:     apiBaseURL,
		countryCode: countryCode,
		cache:       make(map[int]map[string]string),
	}
}

// YearHolidays 返回某年度的全部节假日（日期 → 名称）
func (s *Service) YearHolidays(ctx context.Context, year int) map[string]string {
	s.mu.RLock()
	if cached, ok := s.cache[year]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	holidays, err := s.fetchYear(ctx, year)
	if err != nil {
		logger.Warn().
			Int("year", year).
			Err(err).
			Msg("节假日 API 请求失败，使用内置静态表")
		holidays = fallbackForYear(year)
	}

	s.mu.Lock()
	s.cache[year] = holidays
	s.mu.Unlock()

	return holidays
}

// HolidaysInMonth 返回某年月的节假日列表
func (s *Service) HolidaysInMonth(ctx context.Context, yearMonth string) ([]Holiday, error) {
	first, err := model.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	all := s.YearHolidays(ctx, first.Year())

	var result []Holiday
	for date, name := range all {
		if strings.HasPrefix(date, yearMonth) {
			result = append(result, Holiday{Date: date, Name: name})
		}
	}
	return result, nil
}

// SetForMonth 返回某年月的节假日集合，供排班引擎使用
func (s *Service) SetForMonth(ctx context.Context, yearMonth string) (model.HolidaySet, error) {
	holidays, err := s.HolidaysInMonth(ctx, yearMonth)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return model.NewHolidaySet(dates), nil
}

// nagerHoliday Nager API 响应条目
type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// fetchYear 从 API 拉取某年度节假日
func (s *Service) fetchYear(ctx context.Context, year int) (map[string]string, error) {
	url := fmt.Sprintf("%s/%d/%s", s.baseURL, year, s.countryCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("节假日 API 返回状态 %d", resp.StatusCode)
	}

	var entries []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("节假日 API 返回空列表")
	}

	holidays := make(map[string]string, len(entries))
	for _, e := range entries {
		holidays[e.Date] = e.LocalName
	}
	return holidays, nil
}

// fallbackForYear 从静态表筛选某年度的节假日
func fallbackForYear(year int) map[string]string {
	prefix := fmt.Sprintf("%d-", year)
	result := make(map[string]string)
	for date, name := range fallbackHolidays {
		if strings.HasPrefix(date, prefix) {
			result[date] = name
		}
	}
	return result
}
