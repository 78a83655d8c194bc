package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/geousers/internal/model"
)

func TestWriteErrorResponse_UnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError("user-1"))

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスの解析に失敗した: %v", err)
	}
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("Code = %s, want %s", body.Code, model.ErrCodeUserNotFound)
	}
	// 統一フォーマットの全フィールドが埋まっていること
	if body.Message == "" || body.Category == "" || body.Action == "" {
		t.Errorf("エラーレスポンスの必須フィールドが欠落: %+v", body)
	}
}

func TestWriteInternalServerError_GenericMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスの解析に失敗した: %v", err)
	}
	if body.Code != model.ErrCodeInternal {
		t.Errorf("Code = %s, want %s", body.Code, model.ErrCodeInternal)
	}
}
