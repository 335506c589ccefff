package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevelsAndFormats(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"debug json", Options{Level: "debug", Format: "json"}, false},
		{"logfmt", Options{Format: "logfmt"}, false},
		{"bad level", Options{Level: "loud"}, true},
		{"bad format", Options{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf
			logger, closer, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer closer.Close()
			logger.Info("hello", "key", "value")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("output %q missing message", buf.String())
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	logger.Warn("dangling", "target", "ghost")
	if !strings.Contains(buf.String(), `"target":"ghost"`) {
		t.Errorf("json output %q missing field", buf.String())
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lore.log")
	var buf bytes.Buffer
	logger, closer, err := New(Options{File: path, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("written to both")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to both") || !strings.Contains(buf.String(), "written to both") {
		t.Error("record should reach console and file")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should never return nil")
	}
}
