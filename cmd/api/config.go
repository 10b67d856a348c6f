package main

import (
	"log"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/inference"
	"github.com/wb-go/wbf/config"
)

const defaultAnalyzeTimeout = 2 * time.Minute

type appSettings struct {
	port           string
	ginMode        string
	logLevel       string
	inferenceURL   string
	analyzeTimeout time.Duration
	kafkaBroker    string
	kafkaTopic     string
	minioEndpoint  string
	resultPrefix   string
}

// readSettings подставляет дефолты для всего, что не задано в env
func readSettings(cfg *config.Config) appSettings {
	s := appSettings{
		port:          cfg.GetString("APP_PORT"),
		ginMode:       cfg.GetString("GIN_MODE"),
		logLevel:      cfg.GetString("LOG_LEVEL"),
		inferenceURL:  cfg.GetString("INFERENCE_URL"),
		kafkaBroker:   cfg.GetString("KAFKA_BROKER"),
		kafkaTopic:    cfg.GetString("KAFKA_TOPIC"),
		minioEndpoint: cfg.GetString("MINIO_ENDPOINT"),
		resultPrefix:  cfg.GetString("RESULT_PREFIX"),
	}

	if s.port == "" {
		s.port = "8080"
	}
	if s.logLevel == "" {
		s.logLevel = "info"
	}
	if s.inferenceURL == "" {
		s.inferenceURL = inference.DefaultEndpoint
	}
	if s.kafkaTopic == "" {
		s.kafkaTopic = "analysis-outcomes"
	}
	if s.resultPrefix == "" {
		s.resultPrefix = "results/"
	}

	s.analyzeTimeout = defaultAnalyzeTimeout
	if raw := cfg.GetString("ANALYZE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			log.Printf("Invalid ANALYZE_TIMEOUT %q, using %v", raw, defaultAnalyzeTimeout)
		} else {
			s.analyzeTimeout = d
		}
	}

	return s
}
