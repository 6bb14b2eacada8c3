package config

import (
	"os"
	"strings"
)

type Config struct {
	Port               string
	ReservationsDB     string
	ReservationsDBPort string
	CacheHost          string
	CachePort          string
	JaegerAddress      string
	CasbinModelPath    string
	CasbinPolicyPath   string
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string
	RoomNames          []string
}

func NewConfig() *Config {
	return &Config{
		Port:               os.Getenv("RESERVATION_SERVICE_PORT"),
		ReservationsDB:     os.Getenv("RESERVATIONS_DB_HOST"),
		ReservationsDBPort: os.Getenv("RESERVATIONS_DB_PORT"),
		CacheHost:          os.Getenv("CACHE_HOST"),
		CachePort:          os.Getenv("CACHE_PORT"),
		JaegerAddress:      os.Getenv("JAEGER_ADDRESS"),
		CasbinModelPath:    envOrDefault("CASBIN_MODEL_PATH", "casbinAuthorization/rbac_model.conf"),
		CasbinPolicyPath:   envOrDefault("CASBIN_POLICY_PATH", "casbinAuthorization/rbac_policy.csv"),
		AdminUsername:      envOrDefault("ADMIN_USERNAME", "admin"),
		AdminEmail:         envOrDefault("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		RoomNames:          roomNames(),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func roomNames() []string {
	if value := os.Getenv("ROOM_NAMES"); value != "" {
		names := strings.Split(value, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		return names
	}
	return []string{"Room 1", "Room 2", "Room 3"}
}
