package regex

import "regexp"

var (
	// Review output patterns. Groups: 1 high, 2 medium, 3 low.
	IssueCount     = regexp.MustCompile(`(?:High|高)\s*[(（]\s*(\d+)\s*[)）]|(?:Medium|中)\s*[(（]\s*(\d+)\s*[)）]|(?:Low|低)\s*[(（]\s*(\d+)\s*[)）]`)
	MarkdownSyntax = regexp.MustCompile(`(?m)^(#{1,6}\s|[-*+]\s|\d+\.\s|>\s|` + "```" + `)|\*\*[^*]+\*\*`)

	// Report paths
	UnsafePathChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
	RepeatedSpace   = regexp.MustCompile(`\s+`)

	// Git and Repo patterns
	SSHRepo   = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	HTTPSRepo = regexp.MustCompile(`https?://([^/]+)/([^/]+)/(.+?)(?:\.git)?/?$`)
	CommitSHA = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)
