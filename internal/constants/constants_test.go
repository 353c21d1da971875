package constants

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"MsgConfigLoadError", MsgConfigLoadError},
		{"MsgConfigValidatePrefix", MsgConfigValidatePrefix},
		{"MsgJobID", MsgJobID},
		{"MsgJobKey", MsgJobKey},
		{"MsgJobFireAt", MsgJobFireAt},
		{"MsgJobDelay", MsgJobDelay},
		{"MsgJobRemoved", MsgJobRemoved},
		{"MsgJobNotFound", MsgJobNotFound},
		{"MsgJobsTotal", MsgJobsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if strings.Count(tt.value, "%") != 1 {
				t.Fatalf("%s should have exactly one verb, got %q", tt.name, tt.value)
			}
			if msg := fmt.Sprintf(tt.value, "test"); strings.Contains(msg, "%!") {
				t.Errorf("%s formats badly: %q", tt.name, msg)
			}
			if !strings.HasSuffix(tt.value, "\n") {
				t.Errorf("%s should end with a newline", tt.name)
			}
		})
	}
}

func TestPreviewTimeLayout(t *testing.T) {
	ts := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if got := ts.Format(PreviewTimeLayout); got != "2024-02-29 00:00:00 UTC" {
		t.Errorf("Format(PreviewTimeLayout) = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultPreviewCount < 1 || DefaultPreviewCount > MaxPreviewCount {
		t.Errorf("DefaultPreviewCount = %d out of range", DefaultPreviewCount)
	}
	if DefaultConfigPath != "./config.toml" {
		t.Errorf("DefaultConfigPath = %s", DefaultConfigPath)
	}
	if DefaultEnvPath != "./.env" {
		t.Errorf("DefaultEnvPath = %s", DefaultEnvPath)
	}
}
