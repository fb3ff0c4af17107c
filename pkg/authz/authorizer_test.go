package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stacklok/toolhive-action-authz/internal/telemetry"
	"github.com/stacklok/toolhive-action-authz/pkg/authz"
	"github.com/stacklok/toolhive-action-authz/pkg/authz/mocks"
)

type session struct {
	user string
}

var errForbidden = errors.New("forbidden_result")

func TestAuthorizer_Authorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		registry    *authz.Registry[*session]
		wantAllowed bool
	}{
		{
			name:     "nil registry forbids",
			registry: nil,
		},
		{
			name:     "unset registry forbids",
			registry: &authz.Registry[*session]{},
		},
		{
			name:     "empty registry forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{}),
		},
		{
			name: "rule for another action forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"other_action": authz.Allow[*session](),
			}),
		},
		{
			name: "nil rule forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": nil,
			}),
		},
		{
			name: "rule returning false forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.RuleFunc[*session](func(*session) bool { return false }),
			}),
		},
		{
			name: "rule returning nil forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.ValueFunc[*session](func(*session) any { return nil }),
			}),
		},
		{
			name: "rule returning typed nil forbids",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.ValueFunc[*session](func(*session) any { return (*session)(nil) }),
			}),
		},
		{
			name: "rule returning true allows",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.RuleFunc[*session](func(*session) bool { return true }),
			}),
			wantAllowed: true,
		},
		{
			name: "rule returning truthy string allows",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.ValueFunc[*session](func(*session) any { return "truthy" }),
			}),
			wantAllowed: true,
		},
		{
			name: "rule returning number allows",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.ValueFunc[*session](func(*session) any { return 42 }),
			}),
			wantAllowed: true,
		},
		{
			name: "rule returning object allows",
			registry: authz.NewRegistry(authz.Rules[*session]{
				"action": authz.ValueFunc[*session](func(s *session) any { return s }),
			}),
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			binding := mocks.NewMockBinding[*session](ctrl)
			sess := &session{user: "alice"}

			binding.EXPECT().CurrentAction(sess).Return(authz.ActionID("action")).Times(1)
			if tt.wantAllowed {
				binding.EXPECT().Forbid(gomock.Any()).Times(0)
			} else {
				binding.EXPECT().Forbid(sess).Return(errForbidden).Times(1)
			}

			a, err := authz.New(tt.registry, authz.Binding[*session](binding))
			require.NoError(t, err)

			decision, err := a.Authorize(sess)

			assert.Equal(t, authz.ActionID("action"), decision.Action)
			assert.Equal(t, tt.wantAllowed, decision.Allowed)
			if tt.wantAllowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errForbidden)
			}
		})
	}
}

func TestAuthorizer_RuleSeesRequestContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	binding := mocks.NewMockBinding[*session](ctrl)
	binding.EXPECT().CurrentAction(gomock.Any()).Return(authz.ActionID("admin")).Times(2)
	binding.EXPECT().Forbid(gomock.Any()).Return(nil).Times(1)

	registry := authz.NewRegistry(authz.Rules[*session]{
		"admin": authz.RuleFunc[*session](func(s *session) bool { return s.user == "root" }),
	})
	a, err := authz.New(registry, authz.Binding[*session](binding))
	require.NoError(t, err)

	decision, err := a.Authorize(&session{user: "root"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = a.Authorize(&session{user: "guest"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestAuthorizer_UnboundBinding(t *testing.T) {
	t.Parallel()

	registry := authz.NewRegistry(authz.Rules[*session]{"action": authz.Allow[*session]()})
	a, err := authz.New[*session](registry, nil)
	require.NoError(t, err)

	assert.PanicsWithError(t, "authz: not implemented: CurrentAction", func() {
		_, _ = a.Authorize(&session{})
	})
}

func TestUnboundBinding(t *testing.T) {
	t.Parallel()

	var binding authz.UnboundBinding[*session]

	t.Run("CurrentAction is not implemented", func(t *testing.T) {
		t.Parallel()

		defer func() {
			err, ok := recover().(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, authz.ErrNotImplemented)
		}()
		binding.CurrentAction(&session{})
	})

	t.Run("Forbid is not implemented", func(t *testing.T) {
		t.Parallel()

		defer func() {
			err, ok := recover().(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, authz.ErrNotImplemented)
		}()
		_ = binding.Forbid(&session{})
	})
}

func TestAuthorizer_RecordsDecisions(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	ctrl := gomock.NewController(t)
	binding := mocks.NewMockBinding[*session](ctrl)
	gomock.InOrder(
		binding.EXPECT().CurrentAction(gomock.Any()).Return(authz.ActionID("read")),
		binding.EXPECT().CurrentAction(gomock.Any()).Return(authz.ActionID("GET /unknown/42")),
	)
	binding.EXPECT().Forbid(gomock.Any()).Return(nil)

	registry := authz.NewRegistry(authz.Rules[*session]{"read": authz.Allow[*session]()})
	a, err := authz.New(registry, authz.Binding[*session](binding), authz.WithMeterProvider(mp))
	require.NoError(t, err)

	_, _ = a.Authorize(&session{})
	_, _ = a.Authorize(&session{})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != telemetry.AuthzMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				action, _ := dp.Attributes.Value("action")
				decision, _ := dp.Attributes.Value("decision")
				got[action.AsString()+"/"+decision.AsString()] += dp.Value
			}
		}
	}

	assert.Len(t, got, 2)
	assert.Equal(t, int64(1), got["read/allowed"])
	assert.Equal(t, int64(1), got[telemetry.UnregisteredAction+"/denied"])
}
