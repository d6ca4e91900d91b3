package markdown

import (
	"bytes"
	"regexp"

	"gopkg.in/yaml.v3"
)

// yamlKeyLine matches a line that opens a YAML mapping entry.
var yamlKeyLine = regexp.MustCompile(`^[A-Za-z0-9_.-]+\s*:`)

// frontMatter is the result of splitting a YAML header off the document.
type frontMatter struct {
	// raw is the header including its delimiters. Empty when there is none.
	raw []byte

	// values holds the decoded header. Nil when decoding failed.
	values map[string]any

	// err is the decode failure, if any.
	err error

	// body is the document after the header.
	body []byte

	// lines is how many source lines the header occupies.
	lines int
}

// splitFrontMatter detects a header fenced by "---" on the first line and
// "---" or "..." on a later line. The header counts only when it is a YAML
// mapping, or fails to decode but starts like one. Anything else, such as a
// thematic break followed by prose, is returned untouched as body.
func splitFrontMatter(src []byte) frontMatter {
	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), []byte("---")) {
		return frontMatter{body: src}
	}

	lines := 1
	header := rest
	offset := 0
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		lines++
		trimmed := bytes.TrimRight(line, " \t\r")
		if bytes.Equal(trimmed, []byte("---")) || bytes.Equal(trimmed, []byte("...")) {
			fm := frontMatter{
				raw:   src[:len(src)-len(next)],
				body:  next,
				lines: lines,
			}
			if !fm.decode(header[:offset]) {
				return frontMatter{body: src}
			}
			return fm
		}
		offset += len(rest) - len(next)
		rest = next
	}
	return frontMatter{body: src}
}

// decode fills values or err from the header text. It returns false when
// the text is not front matter at all.
func (fm *frontMatter) decode(header []byte) bool {
	var doc yaml.Node
	if err := yaml.Unmarshal(header, &doc); err != nil {
		if !startsWithKey(header) {
			return false
		}
		fm.err = err
		return true
	}

	values := make(map[string]any)
	if len(doc.Content) == 0 {
		fm.values = values
		return true
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return false
	}
	if err := doc.Content[0].Decode(&values); err != nil {
		fm.err = err
		return true
	}
	fm.values = values
	return true
}

// startsWithKey reports whether the first meaningful line looks like "key:".
func startsWithKey(header []byte) bool {
	for len(header) > 0 {
		line, rest, _ := cutLine(header)
		header = rest
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		return yamlKeyLine.Match(trimmed)
	}
	return false
}

// cutLine splits off the first line, without its newline.
// ok is false when src has no newline at all.
func cutLine(src []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(src, '\n')
	if i < 0 {
		return src, nil, false
	}
	return src[:i], src[i+1:], true
}

// title returns the "title" key when it is a non-empty string.
func (fm frontMatter) title() string {
	if s, ok := fm.values["title"].(string); ok {
		return s
	}
	return ""
}
