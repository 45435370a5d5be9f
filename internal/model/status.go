package model

// Station status constants.
const (
	StatusActive      = "active"
	StatusMaintenance = "maintenance"
	StatusOffline     = "offline"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)
