package authz

import (
	"fmt"
	"log/slog"

	cedar "github.com/cedar-policy/cedar-go"
)

// CedarNamespace is the Cedar namespace of the entities built for evaluation.
//
// Policies refer to actions by identifier, for example:
//
//	permit(
//	  principal,
//	  action == Authz::Action::"GET /things/{id}",
//	  resource
//	) when {
//	  principal.roles.contains("reader")
//	};
const CedarNamespace = "Authz"

// Principal is the caller presented to Cedar policies.
type Principal struct {
	// ID identifies the caller. Empty means anonymous.
	ID string

	// Roles are exposed to policies as principal.roles.
	Roles []string
}

// CedarPolicy is a parsed Cedar policy set.
type CedarPolicy struct {
	policySet *cedar.PolicySet
}

// NewCedarPolicy parses Cedar policy text.
func NewCedarPolicy(policyBytes []byte) (*CedarPolicy, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cedar policies: %w", err)
	}
	return &CedarPolicy{policySet: ps}, nil
}

// Permits evaluates the policy set for principal performing action.
// It returns the decision and the IDs of the policies that determined it.
func (p *CedarPolicy) Permits(principal Principal, action ActionID) (bool, []string) {
	principalID := principal.ID
	if principalID == "" {
		principalID = "anonymous"
	}
	principalUID := cedar.NewEntityUID(cedar.EntityType(CedarNamespace+"::User"), cedar.String(principalID))

	roleValues := make([]cedar.Value, len(principal.Roles))
	for i, role := range principal.Roles {
		roleValues[i] = cedar.String(role)
	}

	entities := cedar.EntityMap{
		principalUID: cedar.Entity{
			UID: principalUID,
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"roles": cedar.NewSet(roleValues...),
			}),
		},
	}

	req := cedar.Request{
		Principal: principalUID,
		Action:    cedar.NewEntityUID(cedar.EntityType(CedarNamespace+"::Action"), cedar.String(action)),
		Resource:  cedar.NewEntityUID(cedar.EntityType(CedarNamespace+"::Endpoint"), cedar.String(action)),
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, diagnostic := cedar.Authorize(p.policySet, entities, req)

	var reasons []string
	for _, r := range diagnostic.Reasons {
		reasons = append(reasons, string(r.PolicyID))
	}

	slog.Debug("Cedar decision",
		"action", action,
		"principal", principalID,
		"decision", decision,
		"reasons", reasons,
	)

	return decision == cedar.Allow, reasons
}

// CedarRule returns a rule for action that asks policy whether the principal
// extracted from the request context may perform it.
func CedarRule[C any](policy *CedarPolicy, action ActionID, principal func(C) Principal) Rule[C] {
	return RuleFunc[C](func(c C) bool {
		allowed, _ := policy.Permits(principal(c), action)
		return allowed
	})
}

// CedarRules builds a rule for each of the given actions backed by policy.
func CedarRules[C any](policy *CedarPolicy, principal func(C) Principal, actions ...ActionID) Rules[C] {
	rules := make(Rules[C], len(actions))
	for _, action := range actions {
		rules[action] = CedarRule(policy, action, principal)
	}
	return rules
}
