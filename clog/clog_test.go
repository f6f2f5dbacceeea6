package clog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestNewDefaults 测试默认配置
func TestNewDefaults(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("New with nil config should not fail, got: %v", err)
	}
	if logger == nil {
		t.Fatal("New should return a valid logger")
	}
}

// TestInvalidConfig 测试非法配置
func TestInvalidConfig(t *testing.T) {
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Error("invalid level should return error")
	}
	if _, err := New(&Config{Format: "xml"}); err == nil {
		t.Error("invalid format should return error")
	}
}

// TestJSONOutput 测试 JSON 格式输出与字段
func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "debug", Format: "json"}, WithWriter(&buf))
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("cache ready", String("driver", "memory"), Int("capacity", 100))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "cache ready" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
	if record["driver"] != "memory" {
		t.Errorf("expected driver=memory, got %v", record["driver"])
	}
	if record["capacity"] != float64(100) {
		t.Errorf("expected capacity=100, got %v", record["capacity"])
	}
}

// TestNamespace 测试命名空间拼接
func TestNamespace(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Format: "json"}, WithWriter(&buf), WithNamespace("aegis"))

	child := logger.WithNamespace("swr", "refresh")
	child.Info("scheduled")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["namespace"] != "aegis.swr.refresh" {
		t.Errorf("expected namespace aegis.swr.refresh, got %v", record["namespace"])
	}
}

// TestLevelFiltering 测试级别过滤与动态调整
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Level: "warn", Format: "console"}, WithWriter(&buf))

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got: %s", buf.String())
	}

	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("warn should not be filtered")
	}

	buf.Reset()
	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug should be visible after SetLevel")
	}
}

// TestWithFields 测试预设字段
func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Format: "json"}, WithWriter(&buf))

	child := logger.With(String("dependency", "openai"))
	child.Info("request sent")

	if !strings.Contains(buf.String(), `"dependency":"openai"`) {
		t.Errorf("expected preset field in output, got: %s", buf.String())
	}
}

// TestDiscard 测试静默 Logger
func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("ignored")
	logger.Error("ignored", Error(nil))

	if logger.With(String("k", "v")) == nil {
		t.Error("Discard().With should return a logger")
	}
	if logger.WithNamespace("x") == nil {
		t.Error("Discard().WithNamespace should return a logger")
	}
}
