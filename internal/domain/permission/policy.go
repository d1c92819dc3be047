package permission

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

// Mode selects how device requests are answered.
type Mode string

const (
	ModeAllow  Mode = "allow"
	ModeDeny   Mode = "deny"
	ModePrompt Mode = "prompt"
)

// ParseMode validates a configured mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAllow, ModeDeny, ModePrompt:
		return m, nil
	default:
		return "", fmt.Errorf("unknown permissions mode %q", s)
	}
}

// Kind is a device capability.
type Kind string

const (
	KindCamera     Kind = "camera"
	KindMicrophone Kind = "microphone"
)

// Kinds lists the capabilities the shell arbitrates.
var Kinds = []Kind{KindCamera, KindMicrophone}

// Request asks for one or more capabilities on behalf of an origin.
type Request struct {
	Origin string
	Kinds  []Kind
}

func (r Request) String() string {
	names := make([]string, len(r.Kinds))
	for i, k := range r.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "+")
}

// Prompter asks the user about a request.
type Prompter interface {
	Prompt(req Request) bool
}

// Verdict is the outcome of evaluating a request.
type Verdict int

const (
	Deny Verdict = iota
	Grant
	// Ask leaves the question to the engine's own prompt.
	Ask
)

func (v Verdict) String() string {
	switch v {
	case Grant:
		return "allow"
	case Ask:
		return "ask"
	default:
		return "deny"
	}
}

// AuditEntry records one decision
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin"`
	Kinds     []Kind    `json:"kinds"`
	Verdict   string    `json:"verdict"`
	Mode      Mode      `json:"mode"`
}

const auditSize = 64

// Policy answers device permission requests.
type Policy struct {
	mode     Mode
	prompter Prompter
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu    sync.Mutex
	audit []AuditEntry
}

// NewPolicy creates a permission policy. In prompt mode a nil prompter
// defers every request to the engine's native prompt.
func NewPolicy(cfg config.PermissionsConfig, prompter Prompter, logger *logging.Logger, metrics *monitoring.Metrics) (*Policy, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	return &Policy{
		mode:     mode,
		prompter: prompter,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Mode returns the active mode
func (p *Policy) Mode() Mode {
	return p.mode
}

// Decide answers a request. In the default allow mode every request is granted.
func (p *Policy) Decide(req Request) bool {
	return p.Evaluate(req) == Grant
}

// Preset is the standing answer for kind before any request is made. In
// prompt mode with a prompter the engine is told to grant, since each
// request is put to the prompter as it arrives. Presets are not audited.
func (p *Policy) Preset(kind Kind) Verdict {
	switch p.mode {
	case ModeAllow:
		return Grant
	case ModePrompt:
		if p.prompter != nil {
			return Grant
		}
		return Ask
	default:
		return Deny
	}
}

// Evaluate answers a request, returning Ask when the mode is prompt and no
// prompter was given.
func (p *Policy) Evaluate(req Request) Verdict {
	verdict := Deny
	switch p.mode {
	case ModeAllow:
		verdict = Grant
	case ModePrompt:
		verdict = Ask
		if p.prompter != nil {
			verdict = Deny
			if p.prompter.Prompt(req) {
				verdict = Grant
			}
		}
	}

	p.logger.Info("Permission request",
		zap.String("kinds", req.String()),
		zap.String("origin", req.Origin),
		zap.String("verdict", verdict.String()),
		zap.String("mode", string(p.mode)),
	)
	for _, k := range req.Kinds {
		p.metrics.RecordPermission(string(k), verdict.String())
	}
	p.record(req, verdict)

	return verdict
}

func (p *Policy) record(req Request, verdict Verdict) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.audit) == auditSize {
		copy(p.audit, p.audit[1:])
		p.audit = p.audit[:auditSize-1]
	}
	p.audit = append(p.audit, AuditEntry{
		Timestamp: time.Now(),
		Origin:    req.Origin,
		Kinds:     append([]Kind(nil), req.Kinds...),
		Verdict:   verdict.String(),
		Mode:      p.mode,
	})
}

// Audit returns the most recent decisions, oldest first.
func (p *Policy) Audit() []AuditEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AuditEntry(nil), p.audit...)
}
