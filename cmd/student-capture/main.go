// Package main submits one student attendance capture to a running portal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/collector"
	"github.com/vainnor/attendance-portal/config"
	"github.com/vainnor/attendance-portal/geo"
	captureclient "github.com/vainnor/attendance-portal/services/capture_client"
	"github.com/vainnor/attendance-portal/student"
)

// Config holds student-capture settings. Flags override the environment.
type Config struct {
	ServerURL  string  `env:"PORTAL_URL" envDefault:"http://localhost:8080"`
	APIKey     string  `env:"PORTAL_API_KEY"`
	RecordPath string  `env:"STUDENT_RECORDS" envDefault:".attendance_records.json"`
	RollNo     string  `env:"STUDENT_ROLL_NO"`
	Timezone   string  `env:"ATTENDANCE_TZ" envDefault:"Local"`
	CourseCode string
	ImagePath  string
	Latitude   float64
	Longitude  float64
	NoFix      bool
}

func parseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Attendance portal base URL")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key sent in the Authorization header")
	fs.StringVar(&cfg.RecordPath, "records", cfg.RecordPath, "File remembering today's check-ins")
	fs.StringVar(&cfg.RollNo, "roll", cfg.RollNo, "Student roll number")
	fs.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "Portal timezone used to key daily records")
	fs.StringVar(&cfg.CourseCode, "course", "", "Course code to mark attendance for")
	fs.StringVar(&cfg.ImagePath, "image", "", "Image file used as the camera feed")
	fs.Float64Var(&cfg.Latitude, "lat", 0, "Device latitude")
	fs.Float64Var(&cfg.Longitude, "lng", 0, "Device longitude")
	fs.BoolVar(&cfg.NoFix, "no-fix", false, "Simulate a device without a location fix")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.RollNo == "" {
		return Config{}, errors.New("-roll is required")
	}
	if cfg.ImagePath == "" {
		return Config{}, errors.New("-image is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("-tz: %w", err)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[STUDENT] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if code := apperr.CodeOf(err); code != apperr.CodeUnknown {
			fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	client := captureclient.New(cfg.ServerURL, cfg.APIKey)

	sessions := collector.NewCollector(client)
	pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sessions.Poll(pollCtx); err != nil {
		return fmt.Errorf("read active session: %w", err)
	}

	book, err := student.OpenFileRecordBook(cfg.RecordPath)
	if err != nil {
		return err
	}

	var locator geo.Locator = geo.Fixed(geo.Coordinate{Latitude: cfg.Latitude, Longitude: cfg.Longitude})
	if cfg.NoFix {
		locator = geo.FixedLocator{}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	flow := student.NewFlow(cfg.RollNo, student.FileCamera{Path: cfg.ImagePath}, locator, sessions, client,
		student.WithRecordBook(book), student.WithLocation(loc))
	if err := flow.Begin(ctx, cfg.CourseCode); err != nil {
		return err
	}
	defer flow.Cancel()

	out, err := flow.Capture(ctx)
	if err != nil {
		return err
	}
	fmt.Println(out.Message)
	return nil
}
