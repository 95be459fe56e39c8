package intake

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

var (
	catalogHeadingRe = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	catalogAliasRe   = regexp.MustCompile(`(?i)^aliases\s*:\s*(.*)$`)
	catalogFieldRe   = regexp.MustCompile(`^\s*[-*]\s+\*\*(.+?)\*\*\s*(?:\(([^)]*)\))?\s*:?\s*(.*)$`)
	catalogOptionsRe = regexp.MustCompile(`(?i)\boptions\s*:\s*`)
	catalogExampleRe = regexp.MustCompile(`(?i)\bexamples?\s*:\s*`)
	catalogMaxRe     = regexp.MustCompile(`(?i)^max\s*=\s*(\d+)$`)
)

// ParseCatalog reads a service catalog document. Each "## Title" heading
// starts a service; an "aliases:" line lists alternative names; each
// bullet "- **Label** (flags): prompt Options: a | b Examples: x; y" is a
// field. Flags are required, optional, multi, max=N or an expected type.
func ParseCatalog(r io.Reader) ([]ServiceDef, error) {
	var (
		defs []ServiceDef
		cur  *ServiceDef
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Questions) == 0 {
			return fmt.Errorf("service %q has no fields", cur.Title)
		}
		defs = append(defs, *cur)
		return nil
	}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if m := catalogHeadingRe.FindStringSubmatch(text); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &ServiceDef{
				ID:          strings.ReplaceAll(textutil.Slug(m[1]), "_", "-"),
				Title:       m[1],
				FromCatalog: true,
			}
			continue
		}
		if cur == nil {
			continue
		}
		if m := catalogAliasRe.FindStringSubmatch(text); m != nil {
			for _, a := range strings.Split(m[1], ",") {
				if a = strings.TrimSpace(a); a != "" {
					cur.Aliases = append(cur.Aliases, a)
				}
			}
			continue
		}
		m := catalogFieldRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		q, err := catalogField(m[1], m[2], m[3])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		cur.Questions = append(cur.Questions, q)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return defs, nil
}

func catalogField(label, flags, rest string) (Question, error) {
	q := Question{Key: textutil.Slug(label)}
	if q.Key == "" {
		return q, fmt.Errorf("field %q has no usable key", label)
	}
	for _, f := range strings.Split(flags, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch {
		case f == "":
		case f == "required":
			q.Required = boolPtr(true)
		case f == "optional":
			q.Required = boolPtr(false)
		case f == "multi":
			q.MultiSelect = true
		case catalogMaxRe.MatchString(f):
			n, _ := strconv.Atoi(catalogMaxRe.FindStringSubmatch(f)[1])
			q.MaxSelect = n
		default:
			t, err := normalize.ParseExpectedType(f)
			if err != nil {
				return q, fmt.Errorf("field %q: %w", label, err)
			}
			q.ExpectedType = t
		}
	}

	prompt, examples := splitMarker(rest, catalogExampleRe)
	prompt, options := splitMarker(prompt, catalogOptionsRe)
	if prompt = strings.TrimSpace(prompt); prompt == "" {
		prompt = "What's your " + strings.ToLower(label) + "?"
	}
	q.Templates = []string{prompt}
	q.Suggestions = splitList(options, "|")
	q.Examples = splitList(examples, ";")
	q.Patterns = []string{strings.ToLower(label)}
	return q, nil
}

// splitMarker cuts s at the first marker match, returning the text before
// and after it.
func splitMarker(s string, marker *regexp.Regexp) (string, string) {
	loc := marker.FindStringIndex(s)
	if loc == nil {
		return s, ""
	}
	return s[:loc[0]], s[loc[1]:]
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
