package model

import "time"

type HubStats struct {
	TotalSessions int           `json:"total_sessions"`
	UserSessions  int           `json:"user_sessions"`
	AdminSessions int           `json:"admin_sessions"`
	Uptime        time.Duration `json:"uptime"`
}
