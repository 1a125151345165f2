package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/rehab-scheduler/internal/schedule"
)

// Config holds application configuration
type Config struct {
	Port       string
	Env        string
	LogLevel   string
	ClinicName string

	// Schedule
	ScheduleWindowDays  int
	ScheduleDayStart    string
	ScheduleDayEnd      string
	ScheduleLunchStart  string
	ScheduleLunchEnd    string
	AppointmentDuration time.Duration
	BreakDuration       time.Duration
	ClosedDays          []string
	Timezone            string

	DatabaseURL string

	RedisAddr            string
	RedisPassword        string
	BookingEventsChannel string

	ExportDir      string
	ExportS3Bucket string
	ExportS3Prefix string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ClinicName: getEnv("CLINIC_NAME", "Sree Rehabilitation Center"),

		ScheduleWindowDays:  getEnvAsInt("SCHEDULE_WINDOW_DAYS", 365),
		ScheduleDayStart:    getEnv("SCHEDULE_DAY_START", "09:00"),
		ScheduleDayEnd:      getEnv("SCHEDULE_DAY_END", "17:00"),
		ScheduleLunchStart:  getEnv("SCHEDULE_LUNCH_START", "12:30"),
		ScheduleLunchEnd:    getEnv("SCHEDULE_LUNCH_END", "13:00"),
		AppointmentDuration: getEnvAsDuration("SCHEDULE_APPOINTMENT_DURATION", 20*time.Minute),
		BreakDuration:       getEnvAsDuration("SCHEDULE_BREAK_DURATION", 5*time.Minute),
		ClosedDays:          getEnvAsList("SCHEDULE_CLOSED_DAYS", []string{"sunday"}),
		Timezone:            getEnv("SCHEDULE_TIMEZONE", "Asia/Kolkata"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		BookingEventsChannel: getEnv("BOOKING_EVENTS_CHANNEL", "rehab:bookings"),

		ExportDir:      getEnv("EXPORT_DIR", "exports"),
		ExportS3Bucket: getEnv("EXPORT_S3_BUCKET", ""),
		ExportS3Prefix: getEnv("EXPORT_S3_PREFIX", "schedules"),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// DayConfig parses the schedule settings.
func (c *Config) DayConfig() (schedule.DayConfig, error) {
	var (
		cfg schedule.DayConfig
		err error
	)
	clocks := []struct {
		key string
		raw string
		dst *schedule.Clock
	}{
		{"SCHEDULE_DAY_START", c.ScheduleDayStart, &cfg.DayStart},
		{"SCHEDULE_DAY_END", c.ScheduleDayEnd, &cfg.DayEnd},
		{"SCHEDULE_LUNCH_START", c.ScheduleLunchStart, &cfg.LunchStart},
		{"SCHEDULE_LUNCH_END", c.ScheduleLunchEnd, &cfg.LunchEnd},
	}
	for _, cl := range clocks {
		if *cl.dst, err = schedule.ParseClock(strings.TrimSpace(cl.raw)); err != nil {
			return schedule.DayConfig{}, fmt.Errorf("config: %s: %w", cl.key, err)
		}
	}
	if c.AppointmentDuration <= 0 {
		return schedule.DayConfig{}, fmt.Errorf("config: SCHEDULE_APPOINTMENT_DURATION must be positive")
	}
	if c.BreakDuration < 0 {
		return schedule.DayConfig{}, fmt.Errorf("config: SCHEDULE_BREAK_DURATION must not be negative")
	}
	cfg.Appointment = c.AppointmentDuration
	cfg.Break = c.BreakDuration
	for _, d := range c.ClosedDays {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]
		if !ok {
			return schedule.DayConfig{}, fmt.Errorf("config: SCHEDULE_CLOSED_DAYS: unknown weekday %q", d)
		}
		cfg.ClosedDays = append(cfg.ClosedDays, wd)
	}
	return cfg, nil
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: SCHEDULE_TIMEZONE: %w", err)
	}
	return loc, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
