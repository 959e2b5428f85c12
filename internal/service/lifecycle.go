package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/model"
)

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Transition is a named lifecycle operation on an order.
type Transition string

const (
	TransitionSubmit  Transition = "submit"
	TransitionAccept  Transition = "accept"
	TransitionCheckIn Transition = "check_in"
	TransitionSettle  Transition = "settle"
	TransitionCancel  Transition = "cancel"
)

// allowedSources defines the statuses each transition may start from.
// ORDERING appears for check-in and settle only for orders that were
// submitted before and sent back for preparation; see requiresSubmission.
var allowedSources = map[Transition][]string{
	TransitionSubmit:  {enum.OrderStatusOrdering},
	TransitionAccept:  {enum.OrderStatusSubmitted},
	TransitionCheckIn: {enum.OrderStatusSubmitted, enum.OrderStatusOrdering},
	TransitionSettle:  {enum.OrderStatusOrdering, enum.OrderStatusSubmitted, enum.OrderStatusCheckedIn, enum.OrderStatusPaid},
	TransitionCancel:  {enum.OrderStatusOrdering, enum.OrderStatusSubmitted},
}

// transitionTargets is the order status each transition lands on.
// Accept moves a submitted order back into the editable ORDERING state,
// which staff read as "in preparation".
var transitionTargets = map[Transition]string{
	TransitionSubmit:  enum.OrderStatusSubmitted,
	TransitionAccept:  enum.OrderStatusOrdering,
	TransitionCheckIn: enum.OrderStatusCheckedIn,
	TransitionSettle:  enum.OrderStatusPaid,
	TransitionCancel:  enum.OrderStatusCancelled,
}

// tableEffects is the manual table status written alongside a transition.
var tableEffects = map[Transition]string{
	TransitionAccept:  enum.TableStatusOrdering,
	TransitionCheckIn: enum.TableStatusCheckedIn,
	TransitionSettle:  enum.TableStatusPaid,
}

// requiresSubmission lists transitions that need the order to have been
// submitted at least once.
var requiresSubmission = map[Transition]bool{
	TransitionCheckIn: true,
	TransitionSettle:  true,
}

// TransitionError reports a transition attempted from an illegal status.
type TransitionError struct {
	Transition Transition
	From       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Transition, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsOpen reports whether an order can still change (not PAID or CANCELLED).
func IsOpen(status string) bool {
	switch status {
	case enum.OrderStatusOrdering, enum.OrderStatusSubmitted, enum.OrderStatusCheckedIn:
		return true
	}
	return false
}

// validateTransition checks that t may be applied to order.
func validateTransition(order model.Order, t Transition) error {
	allowed := false
	for _, s := range allowedSources[t] {
		if s == order.Status {
			allowed = true
			break
		}
	}
	neverSubmitted := order.Status == enum.OrderStatusOrdering && order.SubmittedAt == nil
	if !allowed || (requiresSubmission[t] && neverSubmitted) {
		return &TransitionError{Transition: t, From: order.Status}
	}
	return nil
}

// applyTransition moves order through t at now. It returns false when the
// order is already in the target status (a repeated settle) and nothing
// changed.
func applyTransition(order *model.Order, t Transition, now time.Time) (bool, error) {
	if err := validateTransition(*order, t); err != nil {
		return false, err
	}

	target := transitionTargets[t]
	if order.Status == target {
		return false, nil
	}

	order.Status = target
	switch t {
	case TransitionSubmit:
		if order.SubmittedAt == nil {
			at := now
			order.SubmittedAt = &at
		}
	case TransitionSettle:
		at := now
		order.PaidAt = &at
	}
	return true, nil
}
