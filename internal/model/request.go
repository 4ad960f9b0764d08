package model

import (
	"fmt"
	"time"
)

// ExchangeRequest is a proposal to swap the offered item for the requested one.
type ExchangeRequest struct {
	ID              string        `json:"id"`
	RequesterID     int64         `json:"requester_id"`
	RequestedItemID int64         `json:"requested_item_id"`
	OfferedItemID   int64         `json:"offered_item_id"`
	Status          RequestStatus `json:"status"`
	Message         string        `json:"message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// RequestStatus is the lifecycle state of an exchange request.
type RequestStatus string

// Request statuses.
const (
	RequestPending   RequestStatus = "Pending"
	RequestAccepted  RequestStatus = "Accepted"
	RequestRejected  RequestStatus = "Rejected"
	RequestCompleted RequestStatus = "Completed"
)

// Terminal reports whether no event can move a request out of s.
func (s RequestStatus) Terminal() bool {
	return s == RequestRejected || s == RequestCompleted
}

// Event is an action applied to an exchange request.
type Event string

// Events.
const (
	EventAccept   Event = "accept"
	EventReject   Event = "reject"
	EventComplete Event = "complete"
)

type transitionKey struct {
	from  RequestStatus
	event Event
}

// All events are triggered by the owner of the requested item.
var transitions = map[transitionKey]RequestStatus{
	{RequestPending, EventAccept}:    RequestAccepted,
	{RequestPending, EventReject}:    RequestRejected,
	{RequestAccepted, EventComplete}: RequestCompleted,
}

// NextStatus returns the state reached by applying ev in from. ok is false
// when the pair is not a legal transition.
func NextStatus(from RequestStatus, ev Event) (to RequestStatus, ok bool) {
	to, ok = transitions[transitionKey{from, ev}]
	return to, ok
}

// ParseEvent validates an event name.
func ParseEvent(s string) (Event, error) {
	switch ev := Event(s); ev {
	case EventAccept, EventReject, EventComplete:
		return ev, nil
	}
	return "", fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, s)
}

// RequestFilter narrows a request listing. Zero fields do not filter.
type RequestFilter struct {
	RequesterID      int64
	RequestedOwnerID int64 // owner of the requested item
	Status           RequestStatus
}
