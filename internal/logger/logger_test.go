package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testMethod struct {
	fn    func(msg string, args ...any)
	level string
}

var (
	LogText         = "Test Log Value"
	CustomFieldName = "SomeKey"
	CustomFieldVal  = "SomeVal"
)

type testLogJSON struct {
	Time      time.Time `json:"time"`
	Level     string    `json:"level"`
	Msg       string    `json:"msg"`
	Message   string    `json:"message"`
	CustomVal any       `json:"SomeKey"`
}

func TestSlogLogger(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})

	// level needs to be set to debug for log all
	handler := slog.NewJSONHandler(buffer, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlog(handler)

	testMethods := []testMethod{
		{fn: logger.Error, level: "ERROR"},
		{fn: logger.Warn, level: "WARN"},
		{fn: logger.Info, level: "INFO"},
		{fn: logger.Debug, level: "DEBUG"},
	}

	for _, v := range testMethods {
		t.Run(fmt.Sprintf("testing %s", v.level), func(t *testing.T) {
			buffer.Reset()
			got := logOnce(t, v.fn, buffer)
			require.Equal(t, v.level, got.Level)
			require.Equal(t, LogText, got.Msg)
		})
	}
}

func TestZerologLogger(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	logger := NewZerolog(buffer, zerolog.DebugLevel)

	testMethods := []testMethod{
		{fn: logger.Error, level: "error"},
		{fn: logger.Warn, level: "warn"},
		{fn: logger.Info, level: "info"},
		{fn: logger.Debug, level: "debug"},
	}

	for _, v := range testMethods {
		t.Run(fmt.Sprintf("testing %s", v.level), func(t *testing.T) {
			buffer.Reset()
			got := logOnce(t, v.fn, buffer)
			require.Equal(t, v.level, got.Level)
			require.Equal(t, LogText, got.Message)
		})
	}
}

func logOnce(t *testing.T, fn func(string, ...any), buffer *bytes.Buffer) *testLogJSON {
	t.Helper()
	fn(LogText, CustomFieldName, CustomFieldVal)

	got := new(testLogJSON)
	require.NoError(t, json.Unmarshal(buffer.Bytes(), got))
	require.Equal(t, CustomFieldVal, got.CustomVal)
	return got
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		level   string
		wantErr bool
	}{
		{"text", "info", false},
		{"json", "debug", false},
		{"zerolog", "warn", false},
		{"", "", false},
		{"xml", "info", true},
		{"json", "loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.level, func(t *testing.T) {
			l, err := New(&bytes.Buffer{}, tt.format, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	l, err := New(buffer, "zerolog", "warn")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden")
	require.Zero(t, buffer.Len())

	l.Warn("shown")
	require.Contains(t, buffer.String(), "shown")

	Noop().Error("nothing")
}
