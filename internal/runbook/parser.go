package runbook

import (
	"regexp"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

var (
	headingRegex     = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	fenceRegex       = regexp.MustCompile("^```\\s*(\\S*)\\s*$")
	placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)
)

// Parse converts raw Markdown into a Runbook. It is total: malformed input
// never produces an error, only absent metadata or empty sections, which the
// scorer reports as findings. The caller sets Path before handing the result
// to the index.
func Parse(raw string) *Runbook {
	meta, body := parseFrontmatter(raw)

	rb := &Runbook{Meta: meta}

	lines := strings.Split(body, "\n")

	var (
		current   = -1 // index into rb.Sections, -1 = preamble
		inFence   bool
		fenceLang string
		fence     []string
		bodyBuf   []string
	)

	// byName deduplicates headings case-insensitively: the first occurrence
	// of a heading owns the section, repeats append to it.
	byName := make(map[string]int)

	flushBody := func() {
		text := strings.TrimRight(strings.Join(bodyBuf, "\n"), "\n")
		bodyBuf = bodyBuf[:0]
		if current < 0 {
			rb.Preamble += text
			return
		}
		s := &rb.Sections[current]
		if s.Body != "" {
			s.Body += "\n"
		}
		s.Body += text
	}

	sectionName := func() string {
		if current < 0 {
			return ""
		}
		return rb.Sections[current].Name
	}

	for _, line := range lines {
		if inFence {
			bodyBuf = append(bodyBuf, line)
			if fenceRegex.MatchString(line) {
				inFence = false
				rb.Commands = append(rb.Commands, CommandBlock{
					Language:     fenceLang,
					Raw:          strings.Join(fence, "\n"),
					Placeholders: ExtractPlaceholders(strings.Join(fence, "\n")),
					Section:      sectionName(),
				})
				fence = nil
			} else {
				fence = append(fence, line)
			}
			continue
		}

		if m := fenceRegex.FindStringSubmatch(line); m != nil {
			inFence = true
			fenceLang = m[1]
			if fenceLang == "" {
				fenceLang = "text"
			}
			bodyBuf = append(bodyBuf, line)
			continue
		}

		if m := headingRegex.FindStringSubmatch(line); m != nil {
			flushBody()
			name := m[1]
			key := strings.ToLower(name)
			if idx, ok := byName[key]; ok {
				current = idx
			} else {
				rb.Sections = append(rb.Sections, Section{Name: name})
				current = len(rb.Sections) - 1
				byName[key] = current
			}
			continue
		}

		bodyBuf = append(bodyBuf, line)
	}

	// An unterminated fence still yields a command block.
	if inFence {
		rb.Commands = append(rb.Commands, CommandBlock{
			Language:     fenceLang,
			Raw:          strings.Join(fence, "\n"),
			Placeholders: ExtractPlaceholders(strings.Join(fence, "\n")),
			Section:      sectionName(),
		})
	}
	flushBody()

	for i := range rb.Sections {
		rb.Sections[i].Body = strings.TrimSpace(rb.Sections[i].Body)
	}
	rb.Preamble = strings.TrimSpace(rb.Preamble)

	return rb
}

// ExtractPlaceholders returns the {{name}} markers found in text, in order
// of first appearance, without duplicates.
func ExtractPlaceholders(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Substitute replaces {{name}} markers with values from vars. Markers
// without a value are left in place so callers can surface them instead of
// guessing a default.
func Substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	return placeholderRegex.ReplaceAllStringFunc(text, func(m string) string {
		sub := placeholderRegex.FindStringSubmatch(m)
		if v, ok := vars[sub[1]]; ok {
			return v
		}
		return m
	})
}

// parseFrontmatter splits a leading "---" delimited metadata block from the
// document body. A document without frontmatter returns empty Metadata and
// the input unchanged.
func parseFrontmatter(raw string) (Metadata, string) {
	meta := Metadata{Raw: map[string]string{}}

	lines := strings.Split(raw, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return meta, raw
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		// Unterminated frontmatter: treat the whole document as body.
		return meta, raw
	}

	block := strings.Join(lines[start+1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	for k, v := range parseKeyValues(block) {
		meta.Raw[k] = v
	}

	meta.Title = meta.Raw["title"]
	meta.Version = meta.Raw["version"]
	meta.ServiceOwner = meta.Raw["service_owner"]
	meta.Severity = ParseSeverity(meta.Raw["severity"])
	meta.TriggerCriteria = meta.Raw["trigger_criteria"]

	return meta, body
}

// parseKeyValues decodes a frontmatter block. Well-formed YAML is decoded
// with yaml.v3; anything it rejects falls back to a line-by-line key:value
// scan so malformed metadata degrades instead of failing.
func parseKeyValues(block string) map[string]string {
	out := make(map[string]string)

	var decoded map[string]any
	if err := yamlv3.Unmarshal([]byte(block), &decoded); err == nil {
		for k, v := range decoded {
			out[strings.ToLower(strings.TrimSpace(k))] = yamlScalar(v)
		}
		return out
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		v = strings.Trim(v, `"'`)
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func yamlScalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		b, err := yamlv3.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
