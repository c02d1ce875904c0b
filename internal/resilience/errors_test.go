package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("lusha overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	wrapped := fmt.Errorf("enrich: %w", NewTransientError(errors.New("rate limited"), 429))
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilAndPlain(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
	if IsTransient(errors.New("invalid recipient")) {
		t.Error("plain error should not be transient")
	}
}

func TestIsTransient_Network(t *testing.T) {
	cases := []error{
		fmt.Errorf("write tcp: %w", syscall.ECONNRESET),
		fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED),
		&net.DNSError{IsTimeout: true, Err: "timeout"},
		errors.New("smtp: TLS handshake timeout"),
		errors.New("read: unexpected EOF"),
	}
	for _, err := range cases {
		if !IsTransient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}
}

func TestIsTransient_SMTPReplies(t *testing.T) {
	temp := fmt.Errorf("send: %w", &textproto.Error{Code: 451, Msg: "try again later"})
	if !IsTransient(temp) {
		t.Error("451 should be transient")
	}
	perm := fmt.Errorf("send: %w", &textproto.Error{Code: 550, Msg: "mailbox unavailable"})
	if IsTransient(perm) {
		t.Error("550 should be permanent")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to NOT be transient", code)
		}
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(NewTransientError(errors.New("x"), 500)); got != "transient" {
		t.Errorf("got %q", got)
	}
	if got := Classify(errors.New("bad request")); got != "permanent" {
		t.Errorf("got %q", got)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 500)
	if !errors.Is(te, inner) {
		t.Error("Unwrap should return the inner error")
	}
	if te.Error() != "root cause" {
		t.Errorf("unexpected message %q", te.Error())
	}
}
