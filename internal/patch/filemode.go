package patch

// Filemode describes how a file changed in a given revision.
type Filemode string

const (
	FileFile   Filemode = "file"
	FileNew    Filemode = "new file"
	FileModify Filemode = "modified file"
	FileRename Filemode = "renamed file"
	FileDelete Filemode = "deleted file"
)

// String implements fmt.Stringer.
func (m Filemode) String() string { return string(m) }

// statusPrecedence lists raw status letters in resolution order. For merge
// commits the status has one letter per parent; a modification on any parent
// wins over a deletion, so M comes first and D last.
var statusPrecedence = []struct {
	letter byte
	mode   Filemode
}{
	{'M', FileModify},
	{'C', FileNew},
	{'A', FileNew},
	{'T', FileNew},
	{'R', FileRename},
	{'D', FileDelete},
}

// modeFromStatus resolves a status string (score already stripped) into a
// Filemode. ok is false when no known letter is present.
func modeFromStatus(status string) (Filemode, bool) {
	for _, p := range statusPrecedence {
		for i := 0; i < len(status); i++ {
			if status[i] == p.letter {
				return p.mode, true
			}
		}
	}
	return "", false
}
