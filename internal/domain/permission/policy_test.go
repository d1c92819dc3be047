package permission

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) Prompt(req Request) bool {
	return m.Called(req).Bool(0)
}

var camera = Request{Origin: "https://web.whatsapp.com", Kinds: []Kind{KindCamera}}

func TestDefaultModeGrantsEverything(t *testing.T) {
	metrics := monitoring.NewMetrics()
	policy, err := NewPolicy(config.Default().Permissions, nil, logging.NewNop(), metrics)
	require.NoError(t, err)
	assert.Equal(t, ModeAllow, policy.Mode())

	requests := []Request{
		camera,
		{Origin: "https://web.whatsapp.com", Kinds: []Kind{KindMicrophone}},
		{Origin: "https://web.whatsapp.com", Kinds: []Kind{KindCamera, KindMicrophone}},
	}
	for _, req := range requests {
		assert.True(t, policy.Decide(req), req.String())
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PermissionRequests.WithLabelValues("camera", "allow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PermissionRequests.WithLabelValues("microphone", "allow")))
}

func TestDenyMode(t *testing.T) {
	policy, err := NewPolicy(config.PermissionsConfig{Mode: "deny"}, nil, logging.NewNop(), monitoring.NewMetrics())
	require.NoError(t, err)

	assert.False(t, policy.Decide(camera))
	assert.Equal(t, Deny, policy.Evaluate(camera))
}

func TestPromptModeDelegates(t *testing.T) {
	prompter := new(mockPrompter)
	prompter.On("Prompt", camera).Return(false).Once()
	mic := Request{Origin: "https://web.whatsapp.com", Kinds: []Kind{KindMicrophone}}
	prompter.On("Prompt", mic).Return(true).Once()

	policy, err := NewPolicy(config.PermissionsConfig{Mode: "Prompt"}, prompter, logging.NewNop(), monitoring.NewMetrics())
	require.NoError(t, err)

	assert.False(t, policy.Decide(camera))
	assert.True(t, policy.Decide(mic))
	prompter.AssertExpectations(t)
}

func TestPromptModeWithoutPrompterAsks(t *testing.T) {
	metrics := monitoring.NewMetrics()
	policy, err := NewPolicy(config.PermissionsConfig{Mode: "prompt"}, nil, logging.NewNop(), metrics)
	require.NoError(t, err)

	assert.Equal(t, Ask, policy.Evaluate(camera))
	assert.False(t, policy.Decide(camera))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PermissionRequests.WithLabelValues("camera", "ask")))
}

func TestNewPolicyRejectsUnknownMode(t *testing.T) {
	_, err := NewPolicy(config.PermissionsConfig{Mode: "sometimes"}, nil, logging.NewNop(), monitoring.NewMetrics())
	assert.ErrorContains(t, err, "unknown permissions mode")
}

func TestDecisionsAreLogged(t *testing.T) {
	logger, logs := logging.NewObserved(zapcore.DebugLevel)
	policy, err := NewPolicy(config.Default().Permissions, nil, logger, monitoring.NewMetrics())
	require.NoError(t, err)

	policy.Decide(camera)

	entries := logs.FilterMessage("Permission request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "camera", fields["kinds"])
	assert.Equal(t, "allow", fields["verdict"])
}

func TestAuditIsBounded(t *testing.T) {
	policy, err := NewPolicy(config.Default().Permissions, nil, logging.NewNop(), monitoring.NewMetrics())
	require.NoError(t, err)

	for i := 0; i < auditSize+10; i++ {
		policy.Decide(Request{Origin: fmt.Sprintf("origin-%d", i), Kinds: []Kind{KindCamera}})
	}

	audit := policy.Audit()
	require.Len(t, audit, auditSize)
	assert.Equal(t, "origin-10", audit[0].Origin)
	assert.Equal(t, fmt.Sprintf("origin-%d", auditSize+9), audit[auditSize-1].Origin)
	assert.Equal(t, "allow", audit[0].Verdict)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allow", Grant.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "ask", Ask.String())
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"allow", "DENY", " prompt "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseMode("")
	assert.Error(t, err)
}

func TestPresetFollowsMode(t *testing.T) {
	tests := []struct {
		mode     string
		prompter Prompter
		want     Verdict
	}{
		{mode: "allow", want: Grant},
		{mode: "deny", want: Deny},
		{mode: "prompt", want: Ask},
		{mode: "prompt", prompter: new(mockPrompter), want: Grant},
	}

	for _, tt := range tests {
		logger, logs := logging.NewObserved(zapcore.DebugLevel)
		policy, err := NewPolicy(config.PermissionsConfig{Mode: tt.mode}, tt.prompter, logger, monitoring.NewMetrics())
		require.NoError(t, err)

		for _, kind := range Kinds {
			assert.Equal(t, tt.want, policy.Preset(kind), "%s %s", tt.mode, kind)
		}
		assert.Empty(t, policy.Audit())
		assert.Zero(t, logs.Len())
	}
}
