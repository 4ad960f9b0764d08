package model

import (
	"errors"
	"testing"
)

func TestNextStatus(t *testing.T) {
	statuses := []RequestStatus{RequestPending, RequestAccepted, RequestRejected, RequestCompleted}
	events := []Event{EventAccept, EventReject, EventComplete}

	legal := map[RequestStatus]map[Event]RequestStatus{
		RequestPending:  {EventAccept: RequestAccepted, EventReject: RequestRejected},
		RequestAccepted: {EventComplete: RequestCompleted},
	}

	for _, from := range statuses {
		for _, ev := range events {
			to, ok := NextStatus(from, ev)
			want, wantOK := legal[from][ev]
			if ok != wantOK || to != want {
				t.Errorf("NextStatus(%s, %s) = %q, %v; want %q, %v", from, ev, to, ok, want, wantOK)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, s := range []RequestStatus{RequestRejected, RequestCompleted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		for _, ev := range []Event{EventAccept, EventReject, EventComplete} {
			if _, ok := NextStatus(s, ev); ok {
				t.Errorf("terminal status %s accepted event %s", s, ev)
			}
		}
	}
}

func TestParseEvent(t *testing.T) {
	for _, s := range []string{"accept", "reject", "complete"} {
		if _, err := ParseEvent(s); err != nil {
			t.Errorf("ParseEvent(%q): %v", s, err)
		}
	}
	if _, err := ParseEvent("cancel"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ParseEvent(cancel) error = %v, want ErrInvalidTransition", err)
	}
}
