package models

// DashboardSummary, admin paneli açılış ekranındaki özet.
type DashboardSummary struct {
	Applications      map[ApplicationStatus]int `json:"applications"`
	LatestPending     []ApplicationWithUser     `json:"latest_pending"`
	NewsCount         int                       `json:"news_count"`
	UserCount         int                       `json:"user_count"`
	ActiveStaffCount  int                       `json:"active_staff_count"`
	ServerStatus      *ServerStats              `json:"server_status"`
	StatusSubscribers int                       `json:"status_subscribers"`
}
