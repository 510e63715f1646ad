package apiclient

import (
	"errors"
	"net/http"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantData    string
		wantErr     bool
		wantMessage string
	}{
		{name: "success with JSON", status: http.StatusOK, body: `[{"id":1}]`, wantData: `[{"id":1}]`},
		{name: "created", status: http.StatusCreated, body: `{"id":2}`, wantData: `{"id":2}`},
		{name: "success with invalid JSON is absent", status: http.StatusOK, body: `OK`},
		{name: "no content", status: http.StatusNoContent},
		{name: "detail message", status: http.StatusNotFound, body: `{"detail":"Not found."}`, wantData: `{"detail":"Not found."}`, wantErr: true, wantMessage: "Not found."},
		{name: "validation errors fall back", status: http.StatusBadRequest, body: `{"errors":{"name":["This field is required."]}}`, wantData: `{"errors":{"name":["This field is required."]}}`, wantErr: true, wantMessage: "Request failed"},
		{name: "non-string detail falls back", status: http.StatusBadRequest, body: `{"detail":["x"]}`, wantData: `{"detail":["x"]}`, wantErr: true, wantMessage: "Request failed"},
		{name: "empty detail falls back", status: http.StatusForbidden, body: `{"detail":""}`, wantData: `{"detail":""}`, wantErr: true, wantMessage: "Request failed"},
		{name: "html error page", status: http.StatusBadGateway, body: `<html></html>`, wantErr: true, wantMessage: "Request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := normalize(&Response{StatusCode: tt.status, Body: []byte(tt.body)})
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(data) != tt.wantData {
					t.Errorf("expected data %q, got %q", tt.wantData, data)
				}
				return
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.wantMessage || apiErr.Error() != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, apiErr.Message)
			}
			if string(apiErr.Data) != tt.wantData {
				t.Errorf("expected data %q, got %q", tt.wantData, apiErr.Data)
			}
		})
	}
}
