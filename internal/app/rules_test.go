package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-action-authz/internal/api"
	"github.com/stacklok/toolhive-action-authz/internal/config"
	"github.com/stacklok/toolhive-action-authz/pkg/authz"
)

const testPolicy = `
permit (
  principal,
  action == Authz::Action::"DELETE /things/{id}",
  resource
) when { principal.roles.contains("admin") };
`

func identity(r *http.Request) *http.Request { return r }

func writePolicy(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.cedar")
	require.NoError(t, os.WriteFile(path, []byte(testPolicy), 0600))
	return path
}

func request(user, roles string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(api.UserHeader, user)
	req.Header.Set(api.RolesHeader, roles)
	return req
}

func TestBuildRules(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CedarPolicyFile: writePolicy(t),
		Rules: []config.RuleConfig{
			{Action: "GET /health", Rule: config.RuleAllow},
			{Action: "POST /things", Rule: config.RuleDeny},
			{Action: "GET /things", Rule: config.RuleRole, Roles: []string{"reader", "admin"}},
			{Action: "DELETE /things/{id}", Rule: config.RuleCedar},
		},
	}

	rules, err := BuildRules(cfg, identity)
	require.NoError(t, err)
	require.Len(t, rules, 4)

	tests := []struct {
		name    string
		action  authz.ActionID
		request *http.Request
		want    bool
	}{
		{name: "allow", action: "GET /health", request: request("", ""), want: true},
		{name: "deny", action: "POST /things", request: request("alice", "admin"), want: false},
		{name: "role matches", action: "GET /things", request: request("alice", "reader"), want: true},
		{name: "role matches second role", action: "GET /things", request: request("alice", "guest, admin"), want: true},
		{name: "role missing", action: "GET /things", request: request("alice", "guest"), want: false},
		{name: "no roles", action: "GET /things", request: request("alice", ""), want: false},
		{name: "cedar permits", action: "DELETE /things/{id}", request: request("alice", "admin"), want: true},
		{name: "cedar forbids", action: "DELETE /things/{id}", request: request("bob", "reader"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule, ok := rules[tt.action]
			require.True(t, ok)
			assert.Equal(t, tt.want, authz.Truthy(rule.Evaluate(tt.request)))
		})
	}
}

func TestBuildRules_Errors(t *testing.T) {
	t.Parallel()

	invalidPolicy := filepath.Join(t.TempDir(), "invalid.cedar")
	require.NoError(t, os.WriteFile(invalidPolicy, []byte("permit ("), 0600))

	tests := []struct {
		name    string
		config  *config.Config
		wantErr string
	}{
		{name: "nil config", config: nil, wantErr: "config cannot be nil"},
		{
			name:    "missing policy file",
			config:  &config.Config{CedarPolicyFile: filepath.Join(t.TempDir(), "missing.cedar")},
			wantErr: "failed to read Cedar policy file",
		},
		{
			name:    "invalid policy",
			config:  &config.Config{CedarPolicyFile: invalidPolicy},
			wantErr: "failed to parse Cedar policies",
		},
		{
			name:    "cedar rule without policy",
			config:  &config.Config{Rules: []config.RuleConfig{{Action: "GET /things", Rule: config.RuleCedar}}},
			wantErr: "cedar rule without a policy file",
		},
		{
			name:    "unknown rule",
			config:  &config.Config{Rules: []config.RuleConfig{{Action: "GET /things", Rule: "maybe"}}},
			wantErr: "unknown rule 'maybe'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := BuildRules(tt.config, identity)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
