// Package authz is the single authorization gate for every read and write on
// policies, insurables, claims, and user records. Decisions are pure: no
// storage access, no side effects, safe to evaluate concurrently.
//
// Denials distinguish visibility from permission. A basic actor probing a
// resource outside their ownership boundary gets NotFound so the resource's
// existence is not leaked; a privileged-only operation on a resource the
// actor can see gets Forbidden.
package authz

import (
	"github.com/google/uuid"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	// OpSetStatus covers policy lifecycle promotion/expiry and account status.
	OpSetStatus Operation = "set_status"
	// OpDecide resolves a claim to accepted/rejected.
	OpDecide Operation = "decide"
	// OpChangeRole alters a user's role; admin only.
	OpChangeRole Operation = "change_role"
	// OpList is a read across the collection; ownership scoping of the result
	// set is the caller's job, the gate only decides whether listing at all
	// is allowed.
	OpList Operation = "list"
)

type ResourceKind string

const (
	ResourcePolicy    ResourceKind = "policy"
	ResourceInsurable ResourceKind = "insurable"
	ResourceClaim     ResourceKind = "claim"
	ResourceUser      ResourceKind = "user"
)

// Resource describes the target of an operation. OwnerID is the owning
// user: the policy owner for policies, insurables, and claims, and the user
// themselves for user records.
type Resource struct {
	Kind    ResourceKind
	OwnerID uuid.UUID
}

type Decision int

const (
	Deny Decision = iota
	Allow
	// NotFound denies while hiding the resource's existence.
	NotFound
	// Forbidden denies an operation on a resource the actor may see.
	Forbidden
)

// Decide evaluates whether actor may perform op on res.
func Decide(actor *types.Actor, op Operation, res Resource) Decision {
	if actor == nil || !actor.Role.Valid() {
		return Forbidden
	}

	if actor.Role.Privileged() {
		return decidePrivileged(actor, op)
	}
	return decideBasic(actor, op, res)
}

func decidePrivileged(actor *types.Actor, op Operation) Decision {
	switch op {
	case OpChangeRole:
		if actor.Role == types.RoleAdmin {
			return Allow
		}
		return Forbidden
	default:
		return Allow
	}
}

func decideBasic(actor *types.Actor, op Operation, res Resource) Decision {
	owns := res.OwnerID != uuid.Nil && res.OwnerID == actor.ID

	switch res.Kind {
	case ResourceUser:
		if !owns {
			return NotFound
		}
		switch op {
		case OpRead, OpUpdate:
			return Allow
		default:
			// Roles and account status are never self-service.
			return Forbidden
		}

	case ResourcePolicy, ResourceInsurable, ResourceClaim:
		switch op {
		case OpList:
			// Allowed; the service scopes the result set to the actor.
			return Allow
		case OpCreate:
			// May create for themselves only. Initial status is
			// system-assigned, which the services enforce.
			if owns {
				return Allow
			}
			return Forbidden
		case OpRead, OpUpdate, OpDelete:
			if owns {
				return Allow
			}
			return NotFound
		case OpSetStatus, OpDecide, OpChangeRole:
			if owns {
				return Forbidden
			}
			return NotFound
		}
	}
	return Forbidden
}

// Allowed is a convenience wrapper for callers that only need a boolean.
func Allowed(actor *types.Actor, op Operation, res Resource) bool {
	return Decide(actor, op, res) == Allow
}
