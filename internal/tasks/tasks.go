// Package tasks splits analysed documents into their marker-delimited
// analysis sections.
//
// An analysis section is wrapped as
//
//	<!-- AI_TASK_START: AI全文翻译 -->
//	...
//	<!-- AI_TASK_END: AI全文翻译 -->
package tasks

import (
	"sort"
	"strings"
)

const (
	startToken = "<!-- AI_TASK_START: "
	endPrefix  = "<!-- AI_TASK_END: "
	closeToken = " -->"

	// TitleTask holds the translated document title, not a visible section.
	TitleTask = "AI标题翻译"

	// EmptyPlaceholder is shown for a detected section with no body.
	EmptyPlaceholder = "此部分暂无内容"

	// NoTasksWarning prefixes documents without any section markers.
	NoTasksWarning = "未检测到任何AI分析任务内容"
)

// Legacy task names and their display names.
var renames = map[string]string{
	"AI竞争分析": "AI摘要分析",
}

var priority = map[string]int{
	"AI摘要分析": 1,
	"AI全文翻译": 2,
	"AI技术要点": 3,
	"AI市场影响": 4,
}

const defaultPriority = 999

// Section is one analysis section.
type Section struct {
	Type    string // type as written in the markers
	Name    string // display name
	Content string // trimmed body, or EmptyPlaceholder
}

// Empty reports whether the section had no body.
func (s Section) Empty() bool { return s.Content == EmptyPlaceholder }

// Detect returns the distinct task types in order of first appearance,
// ignoring the title task.
func Detect(content string) []string {
	var types []string
	seen := make(map[string]bool)
	pos := 0
	for {
		i := strings.Index(content[pos:], startToken)
		if i < 0 {
			break
		}
		typeStart := pos + i + len(startToken)
		j := strings.Index(content[typeStart:], closeToken)
		if j < 0 {
			break
		}
		t := content[typeStart : typeStart+j]
		if t != TitleTask && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
		pos = typeStart + j + len(closeToken)
	}
	return types
}

// Body returns the trimmed text between the first start and end markers of
// taskType. ok is false when either marker is missing or out of order.
func Body(content, taskType string) (body string, ok bool) {
	start := startToken + taskType + closeToken
	end := endPrefix + taskType + closeToken
	i := strings.Index(content, start)
	j := strings.Index(content, end)
	if i < 0 || j < 0 || i >= j {
		return "", false
	}
	return strings.TrimSpace(content[i+len(start) : j]), true
}

// DisplayName maps legacy task names to their current label.
func DisplayName(taskType string) string {
	if n, ok := renames[taskType]; ok {
		return n
	}
	return taskType
}

// Priority orders sections for display; lower comes first.
func Priority(taskType string) int {
	if p, ok := priority[DisplayName(taskType)]; ok {
		return p
	}
	return defaultPriority
}

// Extract returns every detected section ordered by priority. Sections of
// equal priority keep document order. A detected type whose markers do not
// pair up still yields a section holding EmptyPlaceholder.
func Extract(content string) []Section {
	types := Detect(content)
	sections := make([]Section, 0, len(types))
	for _, t := range types {
		body, _ := Body(content, t)
		if body == "" {
			body = EmptyPlaceholder
		}
		sections = append(sections, Section{Type: t, Name: DisplayName(t), Content: body})
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return Priority(sections[i].Type) < Priority(sections[j].Type)
	})
	return sections
}

// TranslatedTitle returns the title task body with markdown heading marks
// removed, or "" when absent.
func TranslatedTitle(content string) string {
	i := strings.Index(content, startToken+TitleTask+closeToken)
	if i < 0 {
		return ""
	}
	i += len(startToken + TitleTask + closeToken)
	j := strings.Index(content[i:], endPrefix+TitleTask+closeToken)
	if j < 0 {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(content[i:i+j], "#", ""))
}

// Strip removes every marker line, leaving the section bodies in place.
func Strip(content string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, startToken) || strings.HasPrefix(trimmed, endPrefix) {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
