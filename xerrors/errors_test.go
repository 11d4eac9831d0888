package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestSentinelCopiesKeepIdentity(t *testing.T) {
	e := ErrGridTooLarge.WithDetail("grid_points %d exceeds maximum %d", 9000, 5000).WithContext("index", 2)

	if !errors.Is(e, ErrGridTooLarge) {
		t.Error("copy does not match its sentinel")
	}
	if errors.Is(e, ErrBatchTooLarge) {
		t.Error("copy matches a different sentinel")
	}
	if ErrGridTooLarge.Context != nil || ErrGridTooLarge.Detail != "requested grid points exceed the configured maximum" {
		t.Errorf("sentinel mutated: %+v", ErrGridTooLarge)
	}
	if e.Detail != "grid_points 9000 exceeds maximum 5000" || e.Context["index"] != 2 {
		t.Errorf("copy = detail %q context %v", e.Detail, e.Context)
	}
}

func TestWrapPreservesCode(t *testing.T) {
	wrapped := fmt.Errorf("compare: %w", ErrInvalidOptionType.WithDetail("unsupported option side %q", "x"))
	e := WrapInternal(wrapped, "load comparison failed")

	if e.Code != ErrInvalidOptionType.Code || e.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("wrapped = code %d status %d", e.Code, e.HTTPStatus())
	}
	if !errors.Is(e, ErrInvalidOptionType) {
		t.Error("wrapped error lost its identity")
	}

	plain := WrapInternal(errors.New("boom"), "failed")
	if plain.Type != ErrInternal || plain.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("plain wrap = %+v", plain)
	}
	if WrapInternal(nil, "x") != nil {
		t.Error("wrap of nil must be nil")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		http int
		grpc codes.Code
	}{
		{ErrInvalidInput, http.StatusBadRequest, codes.InvalidArgument},
		{ErrMathConvergence, http.StatusInternalServerError, codes.Internal},
		{NotFound("no such comparison"), http.StatusNotFound, codes.NotFound},
		{LimitExceeded("slow down"), http.StatusTooManyRequests, codes.ResourceExhausted},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.http {
			t.Errorf("%s: http = %d, want %d", tt.err.Message, got, tt.http)
		}
		if got := tt.err.ToGRPCStatus().Code(); got != tt.grpc {
			t.Errorf("%s: grpc = %s, want %s", tt.err.Message, got, tt.grpc)
		}
	}
}

func TestFromError(t *testing.T) {
	if _, ok := FromError(nil); ok {
		t.Error("FromError(nil) ok")
	}
	if _, ok := FromError(errors.New("plain")); ok {
		t.Error("FromError(plain) ok")
	}
	e, ok := FromError(fmt.Errorf("ctx: %w", ErrBatchTooLarge))
	if !ok || e.Code != 400008 {
		t.Errorf("FromError = %v, %v", e, ok)
	}
}
