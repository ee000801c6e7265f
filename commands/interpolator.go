package commands

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InterpolationContext contains all the data available for reply substitution
type InterpolationContext struct {
	Input    string
	Verb     string
	UserID   string
	UserName string
	Now      time.Time
	// Values holds reply-specific variables such as {{id}} or {{message}}.
	Values map[string]string
}

var placeholderPattern = regexp.MustCompile(`\{\{([a-z_]+(?:\.[a-z0-9_]+)?)\}\}`)

// Interpolate replaces {{variable}} placeholders in a reply template with
// actual values. Substituted text is never scanned again, so user input that
// happens to contain braces is left alone. Unknown placeholders are kept.
func Interpolate(template string, ctx *InterpolationContext) string {
	if ctx == nil || !strings.Contains(template, "{{") {
		return template
	}

	// Parse input into words
	inputParts := strings.Fields(ctx.Input)

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		switch name {
		case "input":
			return ctx.Input
		case "input.rest":
			// everything except first word
			if len(inputParts) > 1 {
				return strings.Join(inputParts[1:], " ")
			}
			return ""
		case "verb":
			return ctx.Verb
		case "user.id":
			return ctx.UserID
		case "user.name":
			return ctx.UserName
		case "timestamp":
			return strconv.FormatInt(now.Unix(), 10)
		case "date":
			return now.Format("2006-01-02")
		case "datetime":
			return now.Format(time.RFC3339)
		}

		// {{input.N}} where N is the word index (0-based)
		if idx, ok := strings.CutPrefix(name, "input."); ok {
			n, err := strconv.Atoi(idx)
			if err != nil || n >= len(inputParts) {
				return ""
			}
			return inputParts[n]
		}

		if v, ok := ctx.Values[name]; ok {
			return v
		}
		return match
	})
}
