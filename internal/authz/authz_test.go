package authz

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/suresight/suresight-backend/internal/domain"
)

func basicActor() *types.Actor {
	return &types.Actor{ID: uuid.New(), Role: types.RoleBasic}
}

func TestDecide_BasicOwnerReadsOwnPolicy(t *testing.T) {
	actor := basicActor()
	d := Decide(actor, OpRead, Resource{Kind: ResourcePolicy, OwnerID: actor.ID})
	if d != Allow {
		t.Fatalf("owner read = %v, want Allow", d)
	}
}

func TestDecide_BasicReadingForeignPolicyIsNotFound(t *testing.T) {
	d := Decide(basicActor(), OpRead, Resource{Kind: ResourcePolicy, OwnerID: uuid.New()})
	if d != NotFound {
		t.Fatalf("foreign read = %v, want NotFound", d)
	}
}

func TestDecide_BasicStatusChangeOnOwnPolicyIsForbidden(t *testing.T) {
	actor := basicActor()
	d := Decide(actor, OpSetStatus, Resource{Kind: ResourcePolicy, OwnerID: actor.ID})
	if d != Forbidden {
		t.Fatalf("owner set_status = %v, want Forbidden", d)
	}
}

func TestDecide_BasicDecidingForeignClaimIsNotFound(t *testing.T) {
	d := Decide(basicActor(), OpDecide, Resource{Kind: ResourceClaim, OwnerID: uuid.New()})
	if d != NotFound {
		t.Fatalf("foreign decide = %v, want NotFound", d)
	}
}

func TestDecide_BasicMayCreateForSelfOnly(t *testing.T) {
	actor := basicActor()
	if d := Decide(actor, OpCreate, Resource{Kind: ResourceClaim, OwnerID: actor.ID}); d != Allow {
		t.Fatalf("create for self = %v, want Allow", d)
	}
	if d := Decide(actor, OpCreate, Resource{Kind: ResourcePolicy, OwnerID: uuid.New()}); d != Forbidden {
		t.Fatalf("create for other = %v, want Forbidden", d)
	}
}

func TestDecide_BasicMayList(t *testing.T) {
	d := Decide(basicActor(), OpList, Resource{Kind: ResourcePolicy})
	if d != Allow {
		t.Fatalf("list = %v, want Allow", d)
	}
}

func TestDecide_BasicUserRecord(t *testing.T) {
	actor := basicActor()

	if d := Decide(actor, OpRead, Resource{Kind: ResourceUser, OwnerID: actor.ID}); d != Allow {
		t.Fatalf("self read = %v, want Allow", d)
	}
	if d := Decide(actor, OpUpdate, Resource{Kind: ResourceUser, OwnerID: actor.ID}); d != Allow {
		t.Fatalf("self update = %v, want Allow", d)
	}
	if d := Decide(actor, OpChangeRole, Resource{Kind: ResourceUser, OwnerID: actor.ID}); d != Forbidden {
		t.Fatalf("self role change = %v, want Forbidden", d)
	}
	if d := Decide(actor, OpRead, Resource{Kind: ResourceUser, OwnerID: uuid.New()}); d != NotFound {
		t.Fatalf("foreign user read = %v, want NotFound", d)
	}
}

func TestDecide_AgentCrossesOwnership(t *testing.T) {
	agent := &types.Actor{ID: uuid.New(), Role: types.RoleAgent}

	if d := Decide(agent, OpRead, Resource{Kind: ResourcePolicy, OwnerID: uuid.New()}); d != Allow {
		t.Fatalf("agent foreign read = %v, want Allow", d)
	}
	if d := Decide(agent, OpDecide, Resource{Kind: ResourceClaim, OwnerID: uuid.New()}); d != Allow {
		t.Fatalf("agent decide = %v, want Allow", d)
	}
	if d := Decide(agent, OpChangeRole, Resource{Kind: ResourceUser, OwnerID: uuid.New()}); d != Forbidden {
		t.Fatalf("agent role change = %v, want Forbidden", d)
	}
}

func TestDecide_AdminChangesRoles(t *testing.T) {
	admin := &types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
	d := Decide(admin, OpChangeRole, Resource{Kind: ResourceUser, OwnerID: uuid.New()})
	if d != Allow {
		t.Fatalf("admin role change = %v, want Allow", d)
	}
}

func TestDecide_InvalidActorIsForbidden(t *testing.T) {
	if d := Decide(nil, OpRead, Resource{Kind: ResourcePolicy}); d != Forbidden {
		t.Fatalf("nil actor = %v, want Forbidden", d)
	}
	bogus := &types.Actor{ID: uuid.New(), Role: "superuser"}
	if d := Decide(bogus, OpRead, Resource{Kind: ResourcePolicy, OwnerID: bogus.ID}); d != Forbidden {
		t.Fatalf("invalid role = %v, want Forbidden", d)
	}
}

func TestAllowed(t *testing.T) {
	actor := basicActor()
	if !Allowed(actor, OpRead, Resource{Kind: ResourcePolicy, OwnerID: actor.ID}) {
		t.Fatalf("Allowed must be true for an owner read")
	}
	if Allowed(actor, OpSetStatus, Resource{Kind: ResourcePolicy, OwnerID: actor.ID}) {
		t.Fatalf("Allowed must be false for owner set_status")
	}
}
