package models

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

type (
	// ChangeInfo describes the latest commit and its unified diff against the previous revision.
	// It is built once per run and never mutated afterwards.
	ChangeInfo struct {
		CommitMessage   string
		AuthorName      string
		CommitTimestamp string
		// CommitHash is nil for sources that cannot identify the revision.
		CommitHash *string
		DiffText   string
	}

	// FileChange holds per-file statistics parsed from the diff.
	FileChange struct {
		OldName      string
		NewName      string
		IsNew        bool
		IsDeleted    bool
		IsRenamed    bool
		IsBinary     bool
		AddedLines   int
		DeletedLines int
	}
)

// IsEmpty reports whether the change carries no diff text at all.
func (c ChangeInfo) IsEmpty() bool {
	return c.DiffText == ""
}

// HasChanges reports whether the diff adds or removes at least one line.
func (c ChangeInfo) HasChanges() bool {
	return !c.IsEmpty() && (c.AddedLineCount() > 0 || c.DeletedLineCount() > 0)
}

func (c ChangeInfo) LineCount() int {
	if c.IsEmpty() {
		return 0
	}
	return len(c.lines())
}

// AddedLineCount counts lines starting with "+", ignoring "+++" file headers.
func (c ChangeInfo) AddedLineCount() int {
	count := 0
	for _, line := range c.lines() {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			count++
		}
	}
	return count
}

// DeletedLineCount counts lines starting with "-", ignoring "---" file headers.
func (c ChangeInfo) DeletedLineCount() int {
	count := 0
	for _, line := range c.lines() {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			count++
		}
	}
	return count
}

// ChangeSummary returns a short human readable description of the diff size.
func (c ChangeInfo) ChangeSummary() string {
	return fmt.Sprintf("%d lines (+%d/-%d)", c.LineCount(), c.AddedLineCount(), c.DeletedLineCount())
}

// Hash returns the commit hash or "" when unknown.
func (c ChangeInfo) Hash() string {
	if c.CommitHash == nil {
		return ""
	}
	return *c.CommitHash
}

// ShortHash returns the first seven characters of the commit hash.
func (c ChangeInfo) ShortHash() string {
	h := c.Hash()
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// Preview returns at most maxLines lines of the diff followed by a line count marker.
func (c ChangeInfo) Preview(maxLines int) string {
	if c.IsEmpty() {
		return ""
	}
	lines := c.lines()
	if len(lines) <= maxLines {
		return c.DiffText
	}
	var sb strings.Builder
	for _, line := range lines[:maxLines] {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("... (%d lines total)", len(lines)))
	return sb.String()
}

// Files parses the diff and returns per-file statistics. It returns nil when the
// diff cannot be parsed as git output.
func (c ChangeInfo) Files() []FileChange {
	if c.IsEmpty() {
		return nil
	}

	parsed, _, err := gitdiff.Parse(strings.NewReader(c.DiffText))
	if err != nil {
		return nil
	}

	files := make([]FileChange, 0, len(parsed))
	for _, f := range parsed {
		fc := FileChange{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}
		for _, frag := range f.TextFragments {
			fc.AddedLines += int(frag.LinesAdded)
			fc.DeletedLines += int(frag.LinesDeleted)
		}
		files = append(files, fc)
	}
	return files
}

// Name returns the display name for the file.
func (f FileChange) Name() string {
	switch {
	case f.IsRenamed:
		return fmt.Sprintf("%s -> %s", f.OldName, f.NewName)
	case f.IsDeleted:
		return f.OldName
	case f.NewName != "":
		return f.NewName
	default:
		return f.OldName
	}
}

func (c ChangeInfo) lines() []string {
	if c.DiffText == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(c.DiffText, "\n"), "\n")
}
