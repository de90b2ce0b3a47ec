package zwave

import (
	"fmt"
	"strings"

	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
)

// Match scores desc against every rule and returns the name of the strongest.
//
// Scoring:
//   - Only User genre values are bindable, and rule.ID must equal the node id.
//   - A rule that passes starts at strength 1.
//   - Each optional field that is set (command_class, value_type, label) adds 1
//     when it matches desc case-insensitively. A set field that does not match
//     drops the rule to 0.
//
// The first rule with the highest strength wins. A strength of 0 means no rule
// matched and name is empty.
//
// Parameters:
//   - rules: configured device rules, in definition order
//   - desc: the native value being resolved
//
// Returns:
//   - name: winning rule name, empty when strength is 0
//   - strength: winning score
func Match(rules []config.DeviceConfig, desc Descriptor) (name string, strength int) {
	if desc.ID.Genre != GenreUser {
		return "", 0
	}
	for _, rule := range rules {
		s := score(rule, desc)
		if s > strength {
			name, strength = rule.Name, s
		}
	}
	return name, strength
}

// score rates a single rule against desc.
func score(rule config.DeviceConfig, desc Descriptor) int {
	if rule.ID != int(desc.ID.NodeID) {
		return 0
	}
	strength := 1

	if rule.CommandClass != "" {
		if !desc.ID.CommandClass.Matches(rule.CommandClass) {
			return 0
		}
		strength++
	}
	if rule.ValueType != "" {
		if !strings.EqualFold(strings.TrimSpace(rule.ValueType), desc.ID.Type.Collapsed()) {
			return 0
		}
		strength++
	}
	if rule.Label != "" {
		if !strings.EqualFold(strings.TrimSpace(rule.Label), strings.TrimSpace(desc.Label)) {
			return 0
		}
		strength++
	}
	return strength
}

// Resolve picks the logical name for desc.
//
// When no rule matches and exposeUnbound is set, a name is synthesised from
// the home id, node id and label; otherwise ok is false and the value must be
// ignored.
func Resolve(rules []config.DeviceConfig, desc Descriptor, exposeUnbound bool) (name string, ok bool) {
	if name, strength := Match(rules, desc); strength > 0 {
		return name, true
	}
	if !exposeUnbound {
		return "", false
	}
	return UnboundName(desc), true
}

// UnboundName is the generated name of a value no rule claims:
// zwave_{home id as 8 hex digits}_{node id}_{sanitised label}.
func UnboundName(desc Descriptor) string {
	label := sanitizeLabel(desc.Label)
	if label == "" {
		label = sanitizeLabel(desc.ID.Property)
	}
	return fmt.Sprintf("zwave_%08x_%d_%s", desc.ID.HomeID, desc.ID.NodeID, label)
}

// sanitizeLabel lowercases s and collapses every run of characters outside
// [a-z0-9] to one underscore, trimming underscores at either end.
func sanitizeLabel(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
