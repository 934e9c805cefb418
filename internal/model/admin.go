package model

import "time"

// swagger:model AnalyticsSummary
type AnalyticsSummary struct {
	TotalUsers         int64   `json:"totalUsers"`
	PaidUsers          int64   `json:"paidUsers"`
	FreeUsers          int64   `json:"freeUsers"`
	NewUsersLast30Days int64   `json:"newUsersLast30Days"`
	ConversionRate     float64 `json:"conversionRate"`
	TotalRevenue       string  `json:"totalRevenue"`
	MRRRevenue         string  `json:"mrrRevenue"`
}

type WeeklySignups struct {
	Week  string `json:"week"`
	Users int64  `json:"users"`
}

type RecentSignup struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// swagger:model Analytics
type Analytics struct {
	Summary           AnalyticsSummary `json:"summary"`
	UsersByWeek       []WeeklySignups  `json:"usersByWeek"`
	RecentPaidSignups []RecentSignup   `json:"recentPaidSignups"`
}
