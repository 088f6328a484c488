package obslog

import (
	"testing"

	"go.uber.org/zap"
)

func TestSetLoggerReplacesSharedLogger(t *testing.T) {
	original := L()
	defer SetLogger(original)

	dev := zap.NewNop().Sugar()
	SetLogger(dev)
	if L() != dev {
		t.Fatalf("L() should return the logger passed to SetLogger")
	}
}
