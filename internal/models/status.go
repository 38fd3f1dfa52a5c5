package models

import (
	"errors"
	"fmt"
)

// Action names a workflow transition requested by an officer or admin.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionDispatch      Action = "dispatch"
	ActionCardArrived   Action = "card_arrived"
	ActionCardCollected Action = "card_collected"
)

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected move between workflow states.
type TransitionError struct {
	Workflow string
	From     string
	Action   Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %q", e.Workflow, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ApplicationStatus is the lifecycle state of a new-ID application.
type ApplicationStatus string

const (
	// ApplicationStatusLegacy is the empty status some imported rows carry.
	ApplicationStatusLegacy             ApplicationStatus = ""
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusApproved           ApplicationStatus = "approved"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
	ApplicationStatusDispatched         ApplicationStatus = "dispatched"
	ApplicationStatusReadyForCollection ApplicationStatus = "ready_for_collection"
	ApplicationStatusCollected          ApplicationStatus = "collected"
)

var applicationTransitions = map[ApplicationStatus]map[Action]ApplicationStatus{
	ApplicationStatusSubmitted: {
		ActionApprove: ApplicationStatusApproved,
		ActionReject:  ApplicationStatusRejected,
	},
	ApplicationStatusApproved: {
		ActionDispatch: ApplicationStatusDispatched,
	},
	ApplicationStatusDispatched: {
		ActionCardArrived: ApplicationStatusReadyForCollection,
	},
	ApplicationStatusReadyForCollection: {
		ActionCardCollected: ApplicationStatusCollected,
	},
}

// Next returns the state reached by applying action, if the table allows it.
func (s ApplicationStatus) Next(action Action) (ApplicationStatus, bool) {
	next, ok := applicationTransitions[s][action]
	return next, ok
}

// CanTransitionTo reports whether any action moves s to next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, to := range applicationTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusCollected
}

// HasIdentity reports whether an application in this state owns an issued ID number.
func (s ApplicationStatus) HasIdentity() bool {
	switch s {
	case ApplicationStatusApproved, ApplicationStatusDispatched,
		ApplicationStatusReadyForCollection, ApplicationStatusCollected:
		return true
	}
	return false
}

// IdentityStatuses lists the states a citizen can be resolved from.
func IdentityStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationStatusApproved,
		ApplicationStatusDispatched,
		ApplicationStatusReadyForCollection,
		ApplicationStatusCollected,
	}
}

// LostIDStatus is the lifecycle state of a lost-ID replacement.
type LostIDStatus string

const (
	LostIDStatusSubmitted          LostIDStatus = "submitted"
	LostIDStatusApproved           LostIDStatus = "approved"
	LostIDStatusRejected           LostIDStatus = "rejected"
	LostIDStatusDispatched         LostIDStatus = "dispatched"
	LostIDStatusReadyForCollection LostIDStatus = "ready_for_collection"
	LostIDStatusCollected          LostIDStatus = "collected"
)

var lostIDTransitions = map[LostIDStatus]map[Action]LostIDStatus{
	LostIDStatusSubmitted: {
		ActionApprove: LostIDStatusApproved,
		ActionReject:  LostIDStatusRejected,
	},
	LostIDStatusApproved: {
		ActionDispatch: LostIDStatusDispatched,
	},
	LostIDStatusDispatched: {
		ActionCardArrived: LostIDStatusReadyForCollection,
	},
	LostIDStatusReadyForCollection: {
		ActionCardCollected: LostIDStatusCollected,
	},
}

func (s LostIDStatus) Next(action Action) (LostIDStatus, bool) {
	next, ok := lostIDTransitions[s][action]
	return next, ok
}

func (s LostIDStatus) CanTransitionTo(next LostIDStatus) bool {
	for _, to := range lostIDTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (s LostIDStatus) IsTerminal() bool {
	return s == LostIDStatusRejected || s == LostIDStatusCollected
}

// OfficerStatus is the moderation state of an officer account.
type OfficerStatus string

const (
	OfficerStatusPending  OfficerStatus = "pending"
	OfficerStatusApproved OfficerStatus = "approved"
	OfficerStatusRejected OfficerStatus = "rejected"
)

var officerTransitions = map[OfficerStatus]map[Action]OfficerStatus{
	OfficerStatusPending: {
		ActionApprove: OfficerStatusApproved,
		ActionReject:  OfficerStatusRejected,
	},
}

func (s OfficerStatus) Next(action Action) (OfficerStatus, bool) {
	next, ok := officerTransitions[s][action]
	return next, ok
}
