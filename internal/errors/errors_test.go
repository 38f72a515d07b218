package errors

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: "entrenamiento no encontrado: 7",
	}

	expected := "NOT_FOUND: entrenamiento no encontrado: 7"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("fecha y tipo son obligatorios")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "fecha y tipo son obligatorios" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInvalidDuration(t *testing.T) {
	err := NewInvalidDuration("abc")

	if err.Code != ErrInvalidDuration {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidDuration)
	}
	if err.Details["duracion"] != "abc" {
		t.Errorf("Details[duracion] = %v, want abc", err.Details["duracion"])
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("42")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["id"] != "42" {
		t.Errorf("Details[id] = %v, want 42", err.Details["id"])
	}
}

func TestNewRemoteRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		msg     string
		wantMsg string
	}{
		{name: "server message", status: 400, msg: "fecha y tipo son obligatorios", wantMsg: "fecha y tipo son obligatorios"},
		{name: "generic message", status: 503, msg: "", wantMsg: "HTTP 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRemoteRejected(tt.status, tt.msg)
			if err.Code != ErrRemoteRejected {
				t.Errorf("Code = %q, want %q", err.Code, ErrRemoteRejected)
			}
			if err.Status != tt.status {
				t.Errorf("Status = %d, want %d", err.Status, tt.status)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestNewRemoteUnreachable(t *testing.T) {
	err := NewRemoteUnreachable(fmt.Errorf("dial tcp: connection refused"))
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Message != "dial tcp: connection refused" {
		t.Errorf("Message = %q", err.Message)
	}

	err = NewRemoteUnreachable(nil)
	if err.Message != "api unreachable" {
		t.Errorf("Message = %q, want %q", err.Message, "api unreachable")
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	err := NewStorageUnavailable("save", NewLocalMode(), fmt.Errorf("disk full"))

	if err.Code != ErrStorageUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if err.Details["remote"] != "LOCAL_MODE: local mode" {
		t.Errorf("Details[remote] = %v", err.Details["remote"])
	}
	if err.Details["local"] != "disk full" {
		t.Errorf("Details[local] = %v", err.Details["local"])
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("boom"))
	if err.Code != ErrInternal || err.Status != 500 || err.Message != "boom" {
		t.Errorf("NewInternal() = %+v", err)
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{name: "matching code", err: NewNotFound("1"), code: ErrNotFound, want: true},
		{name: "different code", err: NewNotFound("1"), code: ErrInternal, want: false},
		{name: "wrapped", err: fmt.Errorf("update: %w", NewLocalMode()), code: ErrLocalMode, want: true},
		{name: "plain error", err: fmt.Errorf("plain"), code: ErrInternal, want: false},
		{name: "nil", err: nil, code: ErrInternal, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	orig := NewNotFound("9")
	if got := As(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("As() = %v, want original error", got)
	}

	got := As(fmt.Errorf("plain"))
	if got.Code != ErrInternal {
		t.Errorf("As(plain).Code = %q, want %q", got.Code, ErrInternal)
	}
}
