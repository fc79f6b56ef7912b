// Package privacylog keeps key material and raw identifiers out of log
// output. Secret-bearing attributes are replaced wholesale, byte-slice
// values are dropped no matter what they are called, and identifiers that
// operators still need to correlate on are reduced to a salted fingerprint
// that stays stable within one process and useless outside it.
package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

var (
	bootNonce = randomNonce()

	// fingerprintIDKeys never appear in plain text; their values become
	// fp_ hashes so two log lines about the same connection still match.
	fingerprintIDKeys = map[string]struct{}{
		"connection_id": {},
		"identity_id":   {},
		"event_id":      {},
		"proposal_id":   {},
		"peer_id":       {},
		"device_id":     {},
		"subject":       {},
	}

	// Any key containing one of these fragments is treated as secret
	// material. Over-matching is fine; under-matching is not.
	secretKeyParts = []string{
		"password", "phrase", "mnemonic", "seed", "pin",
		"key", "secret", "token", "auth", "credential", "plaintext",
	}
)

type keyRule int

const (
	ruleKeep keyRule = iota
	ruleRedact
	ruleFingerprint
)

func classifyKey(lowerKey string) keyRule {
	for _, part := range secretKeyParts {
		if strings.Contains(lowerKey, part) {
			return ruleRedact
		}
	}
	if _, ok := fingerprintIDKeys[lowerKey]; ok {
		return ruleFingerprint
	}
	return ruleKeep
}

// SanitizingHandler wraps another slog.Handler and rewrites every record's
// attributes before they reach it.
type SanitizingHandler struct {
	next slog.Handler
}

// WrapHandler sanitizes everything passing through next. Wrapping an
// already-sanitizing handler is a no-op.
func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	if _, ok := next.(*SanitizingHandler); ok {
		return next
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	clean := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	scrubbed := make([]slog.Attr, 0, rec.NumAttrs())
	rec.Attrs(func(attr slog.Attr) bool {
		scrubbed = append(scrubbed, SanitizeAttr(attr))
		return true
	})
	clean.AddAttrs(scrubbed...)
	return h.next.Handle(ctx, clean)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizingHandler{next: h.next.WithAttrs(sanitizeAttrs(attrs))}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

// SanitizeAttr rewrites a single attribute: secrets and raw bytes are
// redacted, known identifiers fingerprinted, groups descended into.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	switch classifyKey(strings.ToLower(key)) {
	case ruleRedact:
		return slog.String(key, redactedValue)
	case ruleFingerprint:
		return slog.String(fingerprintKeyName(key), FingerprintID(valueText(attr.Value)))
	}
	if attr.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: key, Value: slog.GroupValue(sanitizeAttrs(attr.Value.Group())...)}
	}
	if isRawBytes(attr.Value) {
		return slog.String(key, redactedValue)
	}
	return attr
}

// SanitizeArgs applies the same rules to a key-value argument list, for call
// sites that build log arguments before choosing a logger.
func SanitizeArgs(args ...any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			out = append(out, args[i])
			continue
		}
		value := args[i+1]
		i++
		trimmed := strings.TrimSpace(key)
		switch classifyKey(strings.ToLower(trimmed)) {
		case ruleRedact:
			out = append(out, key, redactedValue)
		case ruleFingerprint:
			out = append(out, fingerprintKeyName(trimmed), FingerprintID(fmt.Sprint(value)))
		default:
			if _, isBytes := value.([]byte); isBytes {
				out = append(out, key, redactedValue)
			} else {
				out = append(out, key, value)
			}
		}
	}
	return out
}

// FingerprintID maps an identifier to a short process-local tag. The boot
// nonce keeps fingerprints from being joined across runs or against a
// rainbow table.
func FingerprintID(value string) string {
	id := strings.TrimSpace(value)
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id + "|" + bootNonce))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func sanitizeAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = SanitizeAttr(attr)
	}
	return out
}

func isRawBytes(v slog.Value) bool {
	if v.Kind() != slog.KindAny {
		return false
	}
	_, ok := v.Any().([]byte)
	return ok
}

func fingerprintKeyName(key string) string {
	if strings.HasSuffix(strings.ToLower(key), "_fp") {
		return key
	}
	return key + "_fp"
}

func valueText(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return fmt.Sprint(v.Any())
}

func randomNonce() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "static-boot-nonce"
	}
	return hex.EncodeToString(buf[:])
}
