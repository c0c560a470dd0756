package form

import (
	"strings"
)

// ApplyErrorPayload maps a server-style error payload, messages keyed by
// assorted path spellings (JSON pointers, bracket indices, wrapper prefixes
// like "body."), onto the registered fields. The first message for a
// resolved path becomes that field's error; messages whose path cannot be
// resolved become form-level errors so they are not lost.
func (f *Form) ApplyErrorPayload(payload map[string][]string) {
	if len(payload) == 0 {
		return
	}

	b := newBatch()
	f.mu.Lock()
	registered := make(map[string]struct{}, len(f.fields))
	for path := range f.fields {
		registered[path] = struct{}{}
	}

	for rawPath, rawMessages := range payload {
		messages := normalizeMessages(rawMessages)
		if len(messages) == 0 {
			continue
		}

		mapped, formLevel := mapErrorPath(rawPath, registered)
		if formLevel || mapped == "" {
			for _, msg := range messages {
				f.formErrors = appendUnique(f.formErrors, msg)
			}
			b.form = true
			continue
		}

		fs := f.fields[mapped]
		if fs.errMsg != messages[0] {
			fs.errMsg = messages[0]
			b.add(mapped)
		}
	}
	f.mu.Unlock()
	f.publish(b)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func mapErrorPath(raw string, registered map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := parsePayloadSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	bestDepth := 0
	for _, variant := range segmentVariants(segments) {
		path := longestRegisteredPrefix(variant, registered)
		if path == "" {
			continue
		}
		if depth := strings.Count(path, ".") + 1; depth > bestDepth {
			best, bestDepth = path, depth
		}
	}
	if best != "" {
		return best, false
	}
	return "", true
}

// parsePayloadSegments accepts dotted paths, JSON pointers ("#/items/0"),
// and bracket indices, producing plain segments.
func parsePayloadSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// segmentVariants yields the candidate spellings tried against the
// registered set: as-is and with common wrapper prefixes dropped.
func segmentVariants(segments []string) [][]string {
	variants := [][]string{segments}
	if stripped := dropWrapperSegments(segments); len(stripped) != len(segments) {
		variants = append(variants, stripped)
	}
	return variants
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func longestRegisteredPrefix(segments []string, registered map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := registered[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
