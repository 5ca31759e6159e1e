package memory

import (
	"testing"
	"time"
)

func testMonitor(limit int64) *Monitor {
	return NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.5,
		CriticalWaterMark: 0.8,
		CheckInterval:     time.Hour,
	})
}

func TestObservePausesAndResumes(t *testing.T) {
	m := testMonitor(1000)

	m.observe(600)
	if m.IsPaused() {
		t.Fatal("paused below critical watermark")
	}
	m.observe(900)
	if !m.IsPaused() {
		t.Fatal("not paused above critical watermark")
	}
	// between the marks the state holds
	m.observe(700)
	if !m.IsPaused() {
		t.Fatal("resumed above high watermark")
	}

	done := make(chan bool)
	go func() { done <- m.WaitIfPaused() }()

	select {
	case <-done:
		t.Fatal("WaitIfPaused returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	m.observe(100)
	select {
	case ok := <-done:
		if !ok {
			t.Error("WaitIfPaused = false after recovery")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after recovery")
	}
	if got := m.Usage(); got != 0.1 {
		t.Errorf("Usage = %v, want 0.1", got)
	}
}

func TestStopReleasesWaiters(t *testing.T) {
	m := testMonitor(1000)
	m.observe(950)

	done := make(chan bool)
	go func() { done <- m.WaitIfPaused() }()
	m.Stop()
	m.Stop()

	select {
	case ok := <-done:
		if ok {
			t.Error("WaitIfPaused = true after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after Stop")
	}
	if m.WaitIfPaused() {
		t.Error("stopped monitor lets work continue")
	}
}

func TestNoLimitNeverPauses(t *testing.T) {
	m := &Monitor{config: DefaultConfig(), stopCh: make(chan struct{}), resumeCh: make(chan struct{})}
	m.observe(1 << 40)
	if m.IsPaused() || m.Usage() != 0 {
		t.Error("monitor without a limit paused")
	}
	if !m.WaitIfPaused() {
		t.Error("WaitIfPaused = false without a limit")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"512Mi", 512 << 20, false},
		{"2Gi", 2 << 30, false},
		{"64ki", 64 << 10, false},
		{"1G", 1_000_000_000, false},
		{" 3M ", 3_000_000, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
		{"0", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{512 << 20, "512.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigureFromEnvWithoutLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")
	if got := ConfigureFromEnv(); got.Configured || got.Source != "none" {
		t.Errorf("ConfigureFromEnv = %+v, want unconfigured", got)
	}
}

func TestConfigureFromEnvInvalidLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "lots")
	if got := ConfigureFromEnv(); got.Configured {
		t.Errorf("ConfigureFromEnv = %+v, want unconfigured", got)
	}
}
