package snowcam

import (
	"fmt"
	"strings"

	"camwatch/internal/forecast"
	"camwatch/internal/models"
)

// markdownSpecial is the MarkdownV2 set that must be escaped outside code
const markdownSpecial = "_*[]()~>#+-=|{}.!"

var codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")

// EscapeMarkdown prefixes every MarkdownV2 special character with a backslash
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CaptionFormatter renders window statistics as a MarkdownV2 caption
type CaptionFormatter struct {
	Title string
}

// Format builds the caption: an escaped title line, the summary and raw
// temperatures as inline code, and the per-point lines as a code block.
// Code spans are left unescaped apart from backslash and backtick.
func (f CaptionFormatter) Format(stats *models.WindowStats) string {
	title := f.Title
	if title == "" {
		title = "Forecast"
	}
	header := fmt.Sprintf("%s %s ±%.1fh", title, stats.Now.Format("02.01. 15:04"), stats.RadiusHours)

	summary := forecast.UnicodeMinus(fmt.Sprintf("min=%.2f med=%.2f avg=%.2f max=%.2f rge=%.2f dev=%.2f",
		stats.Min, stats.Median, stats.Mean, stats.Max, stats.Range, stats.StdDev))

	temps := make([]string, len(stats.Temperatures))
	for i, t := range stats.Temperatures {
		temps[i] = fmt.Sprintf("%.1f", t)
	}
	compact := forecast.UnicodeMinus("[" + strings.Join(temps, ", ") + "]")

	var b strings.Builder
	b.WriteString(EscapeMarkdown(header))
	b.WriteString("\n`")
	b.WriteString(codeEscaper.Replace(summary))
	b.WriteString("`\n`")
	b.WriteString(codeEscaper.Replace(compact))
	b.WriteString("`\n```\n")
	b.WriteString(codeEscaper.Replace(strings.Join(stats.Lines, "\n")))
	b.WriteString("\n```")
	return b.String()
}
