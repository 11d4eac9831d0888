package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/optionlab/xerrors"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"nil is success", nil, http.StatusOK, 0},
		{"xerrors invalid", xerrors.ErrInvalidInput.WithDetail("spot must be > 0"), http.StatusBadRequest, 400002},
		{"xerrors wrapped", errors.Join(errors.New("ctx"), xerrors.ErrMathConvergence), http.StatusInternalServerError, 500002},
		{"grpc status", status.Error(codes.ResourceExhausted, "slow down"), http.StatusTooManyRequests, http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var b Body
			if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
				t.Fatal(err)
			}
			if b.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", b.Code, tt.wantCode)
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, map[string]float64{"price": 3.79})

	var b struct {
		Code int                `json:"code"`
		Msg  string             `json:"msg"`
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if b.Code != 0 || b.Msg != "success" || b.Data["price"] != 3.79 {
		t.Errorf("body = %+v", b)
	}
}
