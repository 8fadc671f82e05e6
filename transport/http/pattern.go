package http

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aws/smithy-go/encoding/httpbinding"
)

// segment is one slash-separated piece of a path pattern: either a literal
// or a label (`{name}`, possibly greedy: `{name+}`).
type segment struct {
	literal string
	label   string
	greedy  bool
	isLabel bool
}

// Pattern is a parsed, validated HTTP path pattern (spec.md §4.2 "Path
// templating"). Patterns are validated once at load time so a malformed
// operation definition fails fast rather than on the first call.
type Pattern struct {
	raw      string
	segments []segment
}

var patternCache sync.Map // string -> *Pattern (memoized like schema.Member.Target)

// ParsePattern parses and validates raw, returning InvalidPattern if:
//   - a label name is repeated within the pattern,
//   - more than one greedy label is present, or
//   - any segment follows a greedy label.
func ParsePattern(raw string) (*Pattern, error) {
	if cached, ok := patternCache.Load(raw); ok {
		return cached.(*Pattern), nil
	}
	p, err := parsePattern(raw)
	if err != nil {
		return nil, err
	}
	patternCache.Store(raw, p)
	return p, nil
}

func parsePattern(raw string) (*Pattern, error) {
	trimmed := strings.Trim(raw, "/")
	var segs []segment
	seen := map[string]bool{}
	greedySeen := false
	if trimmed != "" {
		for _, part := range strings.Split(trimmed, "/") {
			if greedySeen {
				return nil, &InvalidPattern{Pattern: raw, Reason: "a segment follows a greedy label"}
			}
			if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
				name := part[1 : len(part)-1]
				greedy := strings.HasSuffix(name, "+")
				if greedy {
					name = strings.TrimSuffix(name, "+")
				}
				if name == "" {
					return nil, &InvalidPattern{Pattern: raw, Reason: "empty label name"}
				}
				if seen[name] {
					return nil, &InvalidPattern{Pattern: raw, Reason: fmt.Sprintf("duplicate label %q", name)}
				}
				seen[name] = true
				if greedy {
					greedySeen = true
				}
				segs = append(segs, segment{label: name, greedy: greedy, isLabel: true})
			} else {
				segs = append(segs, segment{literal: part})
			}
		}
	}
	return &Pattern{raw: raw, segments: segs}, nil
}

// InvalidPattern is returned when a path pattern fails load-time validation
// (spec.md §8 property 10).
type InvalidPattern struct {
	Pattern string
	Reason  string
}

func (e *InvalidPattern) Error() string {
	return fmt.Sprintf("transport/http: invalid path pattern %q: %s", e.Pattern, e.Reason)
}

// Labels returns the label names referenced by the pattern, in order.
func (p *Pattern) Labels() []string {
	var out []string
	for _, s := range p.segments {
		if s.isLabel {
			out = append(out, s.label)
		}
	}
	return out
}

// Render substitutes values into the pattern's labels and returns the
// encoded path. Every non-greedy label is percent-encoded as a whole
// segment; the greedy label (if any) preserves literal '/' characters.
// Missing required label values are a serialization error.
func (p *Pattern) Render(values map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if !s.isLabel {
			b.WriteString(s.literal)
			continue
		}
		v, ok := values[s.label]
		if !ok {
			return "", fmt.Errorf("transport/http: missing required label %q", s.label)
		}
		if s.greedy {
			b.WriteString(escapePath(v, true))
		} else {
			b.WriteString(escapePath(v, false))
		}
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// escapePath percent-encodes s per RFC 3986's unreserved set, delegating to
// the same Encoder the rest of the binding model uses for labels. When
// preserveSlash is true, '/' is left literal (the greedy label case);
// otherwise it is encoded like any other reserved character, matching
// httpbinding's encodeSep polarity (encodeSep == !preserveSlash).
func escapePath(s string, preserveSlash bool) string {
	return httpbinding.EscapePath(s, !preserveSlash)
}

// escapeQuery percent-encodes s per RFC 3986's unreserved set plus '/'
// (spec.md §4.2 "Query... re-encode values using the unreserved set of RFC
// 3986 plus /"), reusing httpbinding's escaper with the separator left
// unencoded.
func escapeQuery(s string) string {
	return httpbinding.EscapePath(s, false)
}
