package assemble

import (
	"regexp"
	"strings"
)

// OCR/layout output is markup-laden: table rows, cell boundaries, and
// paragraph tags carry the only structure the flattened text has. Cleaning
// converts that structure to line breaks and pipes before stripping the
// rest, so tables stay readable for the model.
var (
	xmlCommentRE = regexp.MustCompile(`(?s)<!--.*?-->`)
	rowEndRE     = regexp.MustCompile(`(?i)</tr>|<br\s*/?>|</p>|</div>`)
	cellEndRE    = regexp.MustCompile(`(?i)</td>|</th>`)
	tagRE        = regexp.MustCompile(`<[^>]+>`)
	spacesRE     = regexp.MustCompile(`[ \t]+`)
	edgeSpaceRE  = regexp.MustCompile(` *\n *`)
	blankLinesRE = regexp.MustCompile(`\n\s*\n`)
)

// lineBreak protects intended breaks from the newline stripping step.
const lineBreak = "\x00LB\x00"

// CleanContent strips markup and OCR noise from extracted page text while
// preserving line breaks at structural boundaries (row ends, paragraph
// ends) and marking cell boundaries with pipes.
func CleanContent(text string) string {
	if text == "" {
		return ""
	}

	s := xmlCommentRE.ReplaceAllString(text, "")
	s = rowEndRE.ReplaceAllString(s, lineBreak)
	s = cellEndRE.ReplaceAllString(s, " | ")

	// Original newlines split table cells vertically; drop them before
	// restoring the intended breaks.
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	s = tagRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, lineBreak, "\n")

	// CAD export artifacts.
	s = strings.ReplaceAll(s, "AutoCAD SHX Text", "")
	s = strings.ReplaceAll(s, "%%C", "Ø")

	s = spacesRE.ReplaceAllString(s, " ")
	s = edgeSpaceRE.ReplaceAllString(s, "\n")
	s = blankLinesRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ellipsis marks truncated page text.
const ellipsis = "..."

// truncateRunes cuts s to at most max runes, appending the ellipsis marker
// when anything was cut.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
