package main

import (
	"room_reservation_service/startup"
	"room_reservation_service/startup/config"
)

func main() {
	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
