package main

import (
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/app"
)

// Reads a CSV of course/instructor rows and loads them idempotently:
// course_code,course_title,instructor_name,instructor_email. A header row
// is detected and skipped.
func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var filePath = flag.String("file", "", "Path to CSV file with courses and instructors")
	flag.Parse()

	if *filePath == "" {
		logger.Error.Fatalf("No input file, pass -file courses.csv")
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	rows, err := readRows(*filePath)
	if err != nil {
		logger.Error.Fatalf("Failed to read %s: %v", *filePath, err)
	}

	summary, err := service.ImportAssignments(rows)
	if err != nil {
		logger.Error.Fatalf("Import failed: %v", err)
	}

	logger.Info.Printf(
		"Imported %d courses, %d instructors, %d assignments, skipped %d rows",
		summary.Courses, summary.Instructors, summary.Assignments, summary.Skipped,
	)
}

func readRows(path string) ([]app.ImportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []app.ImportRow
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if first {
			first = false
			if looksLikeHeader(record) {
				continue
			}
		}

		row := app.ImportRow{}
		if len(record) > 0 {
			row.CourseCode = record[0]
		}
		if len(record) > 1 {
			row.CourseTitle = record[1]
		}
		if len(record) > 2 {
			row.InstructorName = record[2]
		}
		if len(record) > 3 {
			row.InstructorEmail = record[3]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func looksLikeHeader(record []string) bool {
	for _, field := range record {
		if strings.Contains(strings.ToLower(field), "course_code") {
			return true
		}
	}
	return false
}
