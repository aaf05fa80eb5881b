package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// allowedTransitions is the full status graph. completed and cancelled have
// no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusNew:        {StatusInReview, StatusCancelled},
	StatusInReview:   {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInReview, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CheckTransition is the single gate consulted for every status change.
// The caller's role is checked first: a client asking for anything beyond
// cancelling their still-new order is Forbidden before the graph is even
// consulted. Staff and admin drive every edge, subject to the graph.
func CheckTransition(current, requested Status, role Role) error {
	switch role {
	case RoleStaff, RoleAdmin:
	case RoleClient:
		if current != StatusNew || requested != StatusCancelled {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	for _, next := range allowedTransitions[current] {
		if next == requested {
			return nil
		}
	}
	return ErrInvalidTransition
}

// CheckStaff allows staff and admin.
func CheckStaff(actor Actor) error {
	if actor.Role == RoleStaff || actor.Role == RoleAdmin {
		return nil
	}
	return ErrForbidden
}

// CheckAdmin allows admin only (reassignment, price override, refunds).
func CheckAdmin(actor Actor) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	return ErrForbidden
}

// Transition applies requested to o after gating, stamps the terminal
// timestamps and returns the mandatory audit note. A client may only touch
// their own order. o is mutated only on success.
func Transition(o *Order, requested Status, actor Actor, freeText string, now time.Time) (Note, error) {
	if actor.Role == RoleClient && o.ClientID != actor.ID {
		return Note{}, ErrForbidden
	}
	if err := CheckTransition(o.Status, requested, actor.Role); err != nil {
		return Note{}, err
	}

	prior := o.Status
	o.Status = requested
	o.UpdatedAt = now
	switch requested {
	case StatusCompleted:
		t := now
		o.CompletedAt = &t
	case StatusCancelled:
		t := now
		o.CancelledAt = &t
	}

	text := fmt.Sprintf("status %s -> %s", prior, requested)
	if freeText != "" {
		text = text + ": " + freeText
	}
	return Note{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		AuthorID:  actor.ID,
		Text:      text,
		CreatedAt: now,
	}, nil
}
