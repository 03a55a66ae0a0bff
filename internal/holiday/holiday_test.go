package holiday

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFallbackForYear(t *testing.T) {
	holidays := fallbackForYear(2026)

	if len(holidays) == 0 {
		t.Fatal("2026 fallback should not be empty")
	}
	if _, ok := holidays["2026-01-01"]; !ok {
		t.Error("2026-01-01 should be a holiday")
	}
	for date := range holidays {
		if date[:4] != "2026" {
			t.Errorf("year filter leaked date %s", date)
		}
	}
}

func TestHolidaysInMonth_Fallback(t *testing.T) {
	// API 返回 500 时应回退到静态表
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewService("KR")
	s.baseURL = server.URL

	holidays, err := s.HolidaysInMonth(context.Background(), "2026-10")
	if err != nil {
		t.Fatalf("HolidaysInMonth failed: %v", err)
	}

	// 2026 年 10 月有开天节、中秋调休、韩文日等
	if len(holidays) < 3 {
		t.Errorf("2026-10 holidays = %d, want at least 3", len(holidays))
	}
	for _, h := range holidays {
		if h.Date[:7] != "2026-10" {
			t.Errorf("month filter leaked date %s", h.Date)
		}
	}
}

func TestHolidaysInMonth_InvalidYearMonth(t *testing.T) {
	s := NewService("KR")
	if _, err := s.HolidaysInMonth(context.Background(), "bogus"); err == nil {
		t.Error("invalid year-month should fail")
	}
}

func TestYearHolidays_FromAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]nagerHoliday{
			{Date: "2026-01-01", LocalName: "신정", Name: "New Year's Day"},
			{Date: "2026-03-01", LocalName: "삼일절", Name: "Independence Movement Day"},
		})
	}))
	defer server.Close()

	s := NewService("KR")
	s.baseURL = server.URL

	holidays := s.YearHolidays(context.Background(), 2026)
	if holidays["2026-01-01"] != "신정" {
		t.Errorf("unexpected holidays map: %v", holidays)
	}
	if len(holidays) != 2 {
		t.Errorf("holiday count = %d, want 2", len(holidays))
	}
}

func TestYearHolidays_Caching(t *testing.T) {
	s := NewService("KR")
	s.cache[2026] = map[string]string{"2026-01-01": "신정"}

	holidays := s.YearHolidays(context.Background(), 2026)
	if len(holidays) != 1 {
		t.Errorf("cached result should be returned verbatim, got %d entries", len(holidays))
	}
}

func TestSetForMonth(t *testing.T) {
	s := NewService("KR")
	s.cache[2026] = map[string]string{
		"2026-01-01": "신정",
		"2026-03-01": "삼일절",
	}

	set, err := s.SetForMonth(context.Background(), "2026-01")
	if err != nil {
		t.Fatalf("SetForMonth failed: %v", err)
	}
	if !set.Contains("2026-01-01") {
		t.Error("2026-01-01 should be in the set")
	}
	if set.Contains("2026-03-01") {
		t.Error("other months should be filtered out")
	}
}
