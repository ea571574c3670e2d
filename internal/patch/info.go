package patch

import "regexp"

var headerInfo = regexp.MustCompile(`Author:\s(?P<author>.+?) <(?P<email>.+?)>\nDate:\s+(?P<date>.+)?\n`)

// Info holds the author and date of a commit as printed by git show.
type Info struct {
	Author string
	Email  string
	Date   string
}

// ParseInfo extracts commit information from the start of a patch. The
// author is "unknown" when the patch has no such header.
func ParseInfo(raw string) Info {
	m := headerInfo.FindStringSubmatch(raw)
	if m == nil {
		return Info{Author: "unknown"}
	}
	return Info{
		Author: m[headerInfo.SubexpIndex("author")],
		Email:  m[headerInfo.SubexpIndex("email")],
		Date:   m[headerInfo.SubexpIndex("date")],
	}
}
