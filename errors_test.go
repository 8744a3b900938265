package gust

import (
	"errors"
	"strings"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		checkFunc func(error) bool
		wantMsg   string
	}{
		{
			name:      "not initialized",
			err:       NewNotInitializedError("AllocateBuffer"),
			checkFunc: IsNotInitializedError,
			wantMsg:   "device not initialized",
		},
		{
			name:      "invalid buffer",
			err:       NewInvalidBufferError("ReadBuffer", "nil buffer handle"),
			checkFunc: IsInvalidBufferError,
			wantMsg:   "nil buffer handle",
		},
		{
			name:      "allocation",
			err:       NewAllocationError("AllocateBuffer", "bulk memory exhausted", nil),
			checkFunc: IsAllocationError,
			wantMsg:   "bulk memory exhausted",
		},
		{
			name:      "transfer",
			err:       NewTransferError("ExecuteGatherKernel", "tile read failed", errors.New("device fault")),
			checkFunc: IsTransferError,
			wantMsg:   "tile read failed",
		},
		{
			name:      "invalid argument",
			err:       NewInvalidArgError("ExecuteGatherKernel", "pattern length must be positive"),
			checkFunc: IsInvalidArgError,
			wantMsg:   "pattern length must be positive",
		},
		{
			name:      "not implemented",
			err:       NewNotImplementedError("ExecutePipelinedGatherKernel", "variant is not built"),
			checkFunc: IsNotImplementedError,
			wantMsg:   "variant is not built",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.checkFunc(tt.err) {
				t.Errorf("type predicate rejected its own error: %v", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", tt.err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying fault")
	err := NewTransferError("WriteBuffer", "copy to bulk memory failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed to extract *Error")
	}
	if e.Op != "WriteBuffer" {
		t.Errorf("Op = %q, want WriteBuffer", e.Op)
	}
	if e.Type != ErrTypeTransfer {
		t.Errorf("Type = %v, want ErrTypeTransfer", e.Type)
	}
}

func TestPredicatesRejectOtherTypes(t *testing.T) {
	err := NewInvalidArgError("ExecuteMultiGatherKernel", "count must be positive")
	if IsTransferError(err) || IsAllocationError(err) || IsNotImplementedError(err) {
		t.Errorf("predicate matched the wrong category for %v", err)
	}
	if IsInvalidArgError(errors.New("plain error")) {
		t.Error("predicate matched a plain error")
	}
	if IsInvalidArgError(nil) {
		t.Error("predicate matched nil")
	}
}
