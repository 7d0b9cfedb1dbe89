package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"WARN", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := levelOf(tt.in)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("levelOf(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewAndNop(t *testing.T) {
	for _, l := range []Logger{New("error", false), New("debug", true), Nop()} {
		l.Debug("debug", String("k", "v"), Bool("b", true), Int64("n", 1))
		l.Infof("formatted %d", 1)
	}
}

func TestWith(t *testing.T) {
	child := Nop().With(Component("scheduler"), Float64("ratio", 0.5))
	if child == nil {
		t.Fatal("With returned nil")
	}
	child.With(String("owner", "alice")).Info("nested")
}
