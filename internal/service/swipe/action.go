package swipe

import (
	svcErr "github.com/emberdate/engine/internal/errors"
)

// Action is the closed set of swipe decisions. Keeping it a typed variant
// with exhaustive switches means a new action kind fails to compile instead
// of falling through some default branch.
type Action uint8

const (
	ActionLike Action = iota + 1
	ActionPass
	ActionSuperlike
)

func (a Action) String() string {
	switch a {
	case ActionLike:
		return "like"
	case ActionPass:
		return "pass"
	case ActionSuperlike:
		return "superlike"
	default:
		return "unknown"
	}
}

// ParseAction converts a wire string into an Action, rejecting anything
// outside the closed set.
func ParseAction(s string) (Action, error) {
	switch s {
	case "like":
		return ActionLike, nil
	case "pass":
		return ActionPass, nil
	case "superlike":
		return ActionSuperlike, nil
	default:
		return 0, svcErr.InvalidArgument("action must be one of: like, pass, superlike")
	}
}
