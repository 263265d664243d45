package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/app"
	"github.com/gfragi/attendance-app/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	handler := handlers.New(service)

	http.HandleFunc("GET /api/v1/checkin", handler.HandleCheckInInfo)
	http.HandleFunc("POST /api/v1/checkin", handler.HandleCheckIn)

	http.HandleFunc("GET /api/v1/courses", handler.HandleCourses)
	http.HandleFunc("POST /api/v1/courses/{course}/sessions", handler.HandleOpenSession)
	http.HandleFunc("GET /api/v1/courses/{course}/sessions", handler.HandleActiveSessions)
	http.HandleFunc("POST /api/v1/sessions/{id}/extend", handler.HandleExtendSession)
	http.HandleFunc("POST /api/v1/sessions/{id}/close", handler.HandleCloseSession)

	http.HandleFunc("GET /api/v1/reports/{view}", handler.HandleReport)

	http.HandleFunc("POST /api/v1/admin/users", handler.HandleAddUser)
	http.HandleFunc("GET /api/v1/admin/users", handler.HandleListUsers)
	http.HandleFunc("POST /api/v1/admin/courses", handler.HandleAddCourse)
	http.HandleFunc("POST /api/v1/admin/assignments", handler.HandleAssignInstructor)
	http.HandleFunc("POST /api/v1/admin/import", handler.HandleImport)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting attendance server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Auth mode: %s", service.Config.Server.AuthMode)
	logger.Debug.Printf("Check-in links point at %s", service.Config.Server.PublicBaseURL)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Attendance server failed: %v", err)
	}
}
