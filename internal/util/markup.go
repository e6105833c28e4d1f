package util

import (
	"html"
	"regexp"
	"strings"
)

var (
	blockMathRe  = regexp.MustCompile(`\$\$([\s\S]*?)\$\$`)
	inlineMathRe = regexp.MustCompile(`\$([^$\n]+?)\$`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	numberedRe   = regexp.MustCompile(`^(\d+)\.\s+`)

	creativeTermRe = regexp.MustCompile(`(?i)\b(color theory|composition|balance|contrast|harmony)\b`)
	goldenRatioRe  = regexp.MustCompile(`(?i)golden ratio`)
	ruleOfThirdsRe = regexp.MustCompile(`(?i)rule of thirds`)
	colorModelRe   = regexp.MustCompile(`\b(RGB|CMYK|HSL)\b`)
)

// RenderMessage 把助手回复转换为 HTML 片段。输入先转义，公式只输出 \( \) / \[ \] 标记，由前端 TeX 渲染
func RenderMessage(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range blockMathRe.FindAllStringSubmatchIndex(text, -1) {
		renderLines(&b, text[last:loc[0]])
		b.WriteString(`<div class="math-block">\[`)
		b.WriteString(html.EscapeString(strings.TrimSpace(text[loc[2]:loc[3]])))
		b.WriteString(`\]</div>`)
		last = loc[1]
	}
	renderLines(&b, text[last:])
	return b.String()
}

func renderLines(b *strings.Builder, segment string) {
	segment = strings.Trim(segment, "\n")
	if segment == "" {
		return
	}

	for _, line := range strings.Split(segment, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case isHeaderLine(trimmed):
			b.WriteString(`<div class="message-header">`)
			b.WriteString(renderInline(trimmed[2 : len(trimmed)-2]))
			b.WriteString(`</div>`)
		case trimmed == "---":
			b.WriteString(`<hr class="message-divider">`)
		case numberedRe.MatchString(trimmed):
			m := numberedRe.FindStringSubmatch(trimmed)
			b.WriteString(`<div class="message-list-item"><span class="marker">`)
			b.WriteString(m[1])
			b.WriteString(`.</span><span>`)
			b.WriteString(renderInline(trimmed[len(m[0]):]))
			b.WriteString(`</span></div>`)
		case strings.HasPrefix(trimmed, "- "):
			b.WriteString(`<div class="message-list-item"><span class="marker">•</span><span>`)
			b.WriteString(renderInline(strings.TrimSpace(trimmed[2:])))
			b.WriteString(`</span></div>`)
		default:
			b.WriteString(`<div class="message-line">`)
			b.WriteString(renderInline(line))
			b.WriteString(`</div>`)
		}
	}
}

// 整行 **标题**，内部不能再出现 **
func isHeaderLine(s string) bool {
	if len(s) <= 4 || !strings.HasPrefix(s, "**") || !strings.HasSuffix(s, "**") {
		return false
	}
	return !strings.Contains(s[2:len(s)-2], "**")
}

func renderInline(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range inlineMathRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(emphasize(html.EscapeString(s[last:loc[0]])))
		b.WriteString(`<span class="math-inline">\(`)
		b.WriteString(html.EscapeString(s[loc[2]:loc[3]]))
		b.WriteString(`\)</span>`)
		last = loc[1]
	}
	b.WriteString(emphasize(html.EscapeString(s[last:])))
	return b.String()
}

func emphasize(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>${1}</strong>")
	return italicRe.ReplaceAllString(s, "<em>${1}</em>")
}

// EmphasizeCreativeTerms 加粗设计术语并补充公式写法
func EmphasizeCreativeTerms(text string) string {
	out := creativeTermRe.ReplaceAllString(text, "**${1}**")
	out = goldenRatioRe.ReplaceAllLiteralString(out, `golden ratio ($\phi = 1.618$)`)
	out = ruleOfThirdsRe.ReplaceAllLiteralString(out, `**Rule of Thirds** (divide canvas into $3 \times 3$ grid)`)
	out = wrapColorModels(out)
	// 原文已加粗的术语会出现 ****
	return strings.ReplaceAll(out, "****", "**")
}

func wrapColorModels(s string) string {
	locs := colorModelRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		b.WriteString(s[last:start])
		if (start > 0 && s[start-1] == '$') || (end < len(s) && s[end] == '$') {
			b.WriteString(s[start:end])
		} else {
			b.WriteString("$" + s[start:end] + "$")
		}
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
