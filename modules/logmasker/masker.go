package logmasker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/GoCodeAlone/folio"
)

var ErrInvalidConfig = errors.New("invalid log masker config")

const redacted = "[REDACTED]"

// MaskableValue lets a value decide its own log representation.
type MaskableValue interface {
	ShouldMask() bool
	MaskedValue() any
}

// Secret is a string that is always redacted when logged.
type Secret string

func (Secret) ShouldMask() bool { return true }
func (Secret) MaskedValue() any { return redacted }

type rules struct {
	enabled   bool
	strategy  MaskStrategy
	fields    map[string]struct{}
	partial   map[string]struct{}
	patterns  []*regexp.Regexp
	showFirst int
	showLast  int
}

func compileRules(cfg *Config) (*rules, error) {
	r := &rules{
		enabled:   cfg.Enabled,
		strategy:  MaskStrategy(cfg.Strategy),
		fields:    make(map[string]struct{}, len(cfg.Fields)),
		partial:   make(map[string]struct{}, len(cfg.PartialFields)),
		showFirst: cfg.ShowFirst,
		showLast:  cfg.ShowLast,
	}
	for _, f := range cfg.Fields {
		r.fields[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}
	for _, f := range cfg.PartialFields {
		r.partial[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidConfig, p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// MaskingLogger decorates a folio.Logger, masking sensitive key/value
// arguments before they reach it. Rules can be replaced while in use.
type MaskingLogger struct {
	base  folio.Logger
	rules atomic.Pointer[rules]
}

func NewMaskingLogger(base folio.Logger, cfg *Config) (*MaskingLogger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &MaskingLogger{base: base}
	if err := l.Apply(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply swaps in the rules described by cfg.
func (l *MaskingLogger) Apply(cfg *Config) error {
	r, err := compileRules(cfg)
	if err != nil {
		return err
	}
	l.rules.Store(r)
	return nil
}

// Base returns the wrapped logger.
func (l *MaskingLogger) Base() folio.Logger {
	return l.base
}

func (l *MaskingLogger) Info(msg string, args ...any) {
	l.base.Info(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Error(msg string, args ...any) {
	l.base.Error(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Warn(msg string, args ...any) {
	l.base.Warn(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Debug(msg string, args ...any) {
	l.base.Debug(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) maskArgs(args []any) []any {
	r := l.rules.Load()
	if !r.enabled || len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	for i := 0; i < len(args); i += 2 {
		result[i] = args[i]
		if i+1 >= len(args) {
			break
		}
		key, _ := args[i].(string)
		result[i+1] = r.mask(key, args[i+1])
	}
	return result
}

func (r *rules) mask(key string, value any) any {
	if m, ok := value.(MaskableValue); ok {
		if m.ShouldMask() {
			return m.MaskedValue()
		}
		return value
	}

	lower := strings.ToLower(key)
	if _, ok := r.fields[lower]; ok {
		return r.apply(value, r.strategy)
	}
	if _, ok := r.partial[lower]; ok {
		return r.apply(value, MaskStrategyPartial)
	}

	switch v := value.(type) {
	case map[string]any:
		masked := make(map[string]any, len(v))
		for k, inner := range v {
			masked[k] = r.mask(k, inner)
		}
		return masked
	case string:
		for _, re := range r.patterns {
			if re.MatchString(v) {
				return r.apply(value, r.strategy)
			}
		}
	}
	return value
}

func (r *rules) apply(value any, strategy MaskStrategy) any {
	switch strategy {
	case MaskStrategyNone:
		return value
	case MaskStrategyHash:
		sum := sha256.Sum256([]byte(fmt.Sprint(value)))
		return "[HASH:" + hex.EncodeToString(sum[:4]) + "]"
	case MaskStrategyPartial:
		if s, ok := value.(string); ok {
			return partialMask(s, r.showFirst, r.showLast)
		}
	}
	return redacted
}

func partialMask(value string, showFirst, showLast int) string {
	runes := []rune(value)
	if showFirst+showLast >= len(runes) {
		return strings.Repeat("*", len(runes))
	}
	masked := strings.Repeat("*", len(runes)-showFirst-showLast)
	return string(runes[:showFirst]) + masked + string(runes[len(runes)-showLast:])
}
