package core

import "time"

// Rule defines the request ceilings for one (path, product) pair.
// A request for a pair with no stored rule is rejected, never implicitly
// unlimited.
type Rule struct {
	Path         string `json:"path" yaml:"path"`
	ProductName  string `json:"product_name" yaml:"product_name"`
	HourlyLimit  int    `json:"hourly_limit" yaml:"hourly_limit"`
	DailyLimit   int    `json:"daily_limit" yaml:"daily_limit"`
	MonthlyLimit int    `json:"monthly_limit" yaml:"monthly_limit"`
}

// RequestCount holds the observed request totals for the current calendar
// hour, day and month for one (path, product) pair.
type RequestCount struct {
	Path         string `json:"path"`
	ProductName  string `json:"product_name"`
	HourlyCount  int    `json:"hourly_count"`
	DailyCount   int    `json:"daily_count"`
	MonthlyCount int    `json:"monthly_count"`
}

// RequestRecord captures one completed request for the usage log. Response
// fields stay empty when the downstream handler never produced a response.
type RequestRecord struct {
	Path            string
	ProductName     string
	ProductModule   string
	ProductFeature  string
	ProductTenant   string
	RequestHeaders  string
	RequestBody     string
	ResponseHeaders string
	ResponseBody    string
	Allowed         bool
	RejectReason    string

	// Window keys are derived from RecordedAt when left zero.
	MonthKey   int
	DayKey     int
	HourKey    int
	RecordedAt time.Time
}
