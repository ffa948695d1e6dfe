package markdown

import (
	"net/url"
	"strings"
)

var (
	labelEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)
	cellEscaper  = strings.NewReplacer(`|`, `\|`, "\n", " ")
	badgeEscaper = strings.NewReplacer("-", "--", "_", "__", " ", "_")
)

// Builder 按行拼接 Mattermost markdown 文本
type Builder struct {
	sb strings.Builder
}

// NewLine 追加一行
func (b *Builder) NewLine(text string) *Builder {
	b.sb.WriteString("\n")
	b.sb.WriteString(text)
	return b
}

// Table 追加表格，首行作为表头，cells 按列数切分，不足一行时补空
func (b *Builder) Table(columns int, cells []string) *Builder {
	if columns <= 0 || len(cells) == 0 {
		return b
	}

	b.sb.WriteString("\n")
	for i := 0; i < len(cells); i += columns {
		row := make([]string, columns)
		for j := 0; j < columns && i+j < len(cells); j++ {
			row[j] = cellEscaper.Replace(cells[i+j])
		}
		b.sb.WriteString("\n|" + strings.Join(row, "|") + "|")
		if i == 0 {
			b.sb.WriteString("\n|" + strings.Repeat(" :--- |", columns))
		}
	}
	b.sb.WriteString("\n")
	return b
}

// String 返回去掉开头空白的文本
func (b *Builder) String() string {
	return strings.TrimLeft(b.sb.String(), " \n")
}

// Link 行内链接
func Link(href, label string) string {
	return "[" + labelEscaper.Replace(label) + "](" + href + ")"
}

// Image 行内图片
func Image(alt, src string) string {
	return "![" + labelEscaper.Replace(alt) + "](" + src + ")"
}

// ImageLink 可点击的图片
func ImageLink(href, alt, src string) string {
	return "[" + Image(alt, src) + "](" + href + ")"
}

// Bold 加粗
func Bold(text string) string {
	return "**" + text + "**"
}

// Badge shields.io 静态徽章地址
func Badge(label, message, color string) string {
	return "https://img.shields.io/badge/" + BadgeEscape(label) + "-" + BadgeEscape(message) + "-" + url.PathEscape(color)
}

// BadgeEscape 按 shields.io 规则转义徽章文字
func BadgeEscape(text string) string {
	return url.PathEscape(badgeEscaper.Replace(text))
}
