package model

// AdminStats 後台統計
type AdminStats struct {
	TotalEvents        int64   `json:"total_events"`
	TotalRegistrations int64   `json:"total_registrations"`
	TotalRevenue       float64 `json:"total_revenue"`
}
