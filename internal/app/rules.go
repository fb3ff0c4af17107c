package app

import (
	"fmt"
	"net/http"
	"os"
	"slices"

	"github.com/stacklok/toolhive-action-authz/internal/api"
	"github.com/stacklok/toolhive-action-authz/internal/config"
	"github.com/stacklok/toolhive-action-authz/pkg/authz"
)

// BuildRules turns the configured rules into authorization rules for the
// context type C. request extracts the HTTP request from C; callers are
// identified from its headers.
func BuildRules[C any](cfg *config.Config, request func(C) *http.Request) (authz.Rules[C], error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	principal := func(c C) authz.Principal {
		return api.PrincipalFromRequest(request(c))
	}

	var policy *authz.CedarPolicy
	if cfg.CedarPolicyFile != "" {
		var err error
		policy, err = loadCedarPolicy(cfg.CedarPolicyFile)
		if err != nil {
			return nil, err
		}
	}

	rules := make(authz.Rules[C], len(cfg.Rules))
	for _, rc := range cfg.Rules {
		action := authz.ActionID(rc.Action)

		switch rc.Rule {
		case config.RuleAllow:
			rules[action] = authz.Allow[C]()
		case config.RuleDeny:
			rules[action] = authz.Deny[C]()
		case config.RuleRole:
			rules[action] = roleRule(rc.Roles, principal)
		case config.RuleCedar:
			if policy == nil {
				return nil, fmt.Errorf("action %s: cedar rule without a policy file", rc.Action)
			}
			rules[action] = authz.CedarRule(policy, action, principal)
		default:
			return nil, fmt.Errorf("action %s: unknown rule '%s'", rc.Action, rc.Rule)
		}
	}

	return rules, nil
}

// roleRule permits callers holding any of roles
func roleRule[C any](roles []string, principal func(C) authz.Principal) authz.Rule[C] {
	return authz.RuleFunc[C](func(c C) bool {
		return slices.ContainsFunc(principal(c).Roles, func(role string) bool {
			return slices.Contains(roles, role)
		})
	})
}

func loadCedarPolicy(path string) (*authz.CedarPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Cedar policy file: %w", err)
	}
	return authz.NewCedarPolicy(data)
}
