package promptprofile

import (
	"bufio"
	"strings"

	"gopkg.in/yaml.v3"
)

type Frontmatter struct {
	Status string `yaml:"status"`
}

func (fm Frontmatter) Draft() bool {
	return strings.EqualFold(strings.TrimSpace(fm.Status), "draft")
}

// ParseFrontmatter splits YAML between leading --- fences from the body.
// ok is false when there is no complete front matter block; body is then
// the whole input.
func ParseFrontmatter(contents string) (fm Frontmatter, body string, ok bool) {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	sc := bufio.NewScanner(strings.NewReader(contents))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "---" {
		return Frontmatter{}, contents, false
	}

	var yamlLines, rest []string
	foundEnd := false
	for sc.Scan() {
		line := sc.Text()
		if !foundEnd {
			if strings.TrimSpace(line) == "---" {
				foundEnd = true
				continue
			}
			yamlLines = append(yamlLines, line)
			continue
		}
		rest = append(rest, line)
	}
	if !foundEnd {
		return Frontmatter{}, contents, false
	}
	// Malformed YAML still counts as front matter; it is dropped from the body.
	_ = yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &fm)
	return fm, strings.Join(rest, "\n"), true
}
