package main

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

func TestTickerInterval(t *testing.T) {
	tests := map[string]time.Duration{
		"@every 15m":  15 * time.Minute,
		"@every 30s":  30 * time.Second,
		"*/5 * * * *": 15 * time.Minute,
		"":            15 * time.Minute,
		"@every -1m":  15 * time.Minute,
	}
	for in, want := range tests {
		if got := tickerInterval(in); got != want {
			t.Errorf("tickerInterval(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAsynqLogLevel(t *testing.T) {
	if asynqLogLevel("DEBUG") != asynq.DebugLevel || asynqLogLevel("warn") != asynq.WarnLevel || asynqLogLevel("") != asynq.InfoLevel {
		t.Error("unexpected asynq log level mapping")
	}
}
