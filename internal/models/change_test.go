package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 3b18e51..a9c1d2f 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,4 @@
 package main
-import "fmt"
+import (
+	"fmt"
+)
diff --git a/README.md b/README.md
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/README.md
@@ -0,0 +1 @@
+# demo
`

func TestChangeInfo_IsEmpty(t *testing.T) {
	assert.True(t, ChangeInfo{}.IsEmpty())
	assert.False(t, ChangeInfo{}.HasChanges())
	assert.Equal(t, 0, ChangeInfo{}.LineCount())

	c := ChangeInfo{DiffText: " "}
	assert.False(t, c.IsEmpty())
	assert.False(t, c.HasChanges())
}

func TestChangeInfo_LineCounts(t *testing.T) {
	tests := []struct {
		name    string
		diff    string
		added   int
		deleted int
	}{
		{"headers only", "--- a/x\n+++ b/x\n", 0, 0},
		{"single add", "+++ b/x\n+hello\n", 1, 0},
		{"single delete", "--- a/x\n-bye\n", 0, 1},
		{"mixed", "--- a/x\n+++ b/x\n+a\n+b\n-c\n context\n", 2, 1},
		{"sample", sampleDiff, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ChangeInfo{DiffText: tt.diff}
			assert.Equal(t, tt.added, c.AddedLineCount())
			assert.Equal(t, tt.deleted, c.DeletedLineCount())
			assert.Equal(t, tt.added > 0 || tt.deleted > 0, c.HasChanges())
		})
	}
}

func TestChangeInfo_ChangeSummaryAndPreview(t *testing.T) {
	c := ChangeInfo{DiffText: "+a\n-b\n c\n"}
	assert.Equal(t, "3 lines (+1/-1)", c.ChangeSummary())
	assert.Equal(t, c.DiffText, c.Preview(10))

	preview := c.Preview(1)
	assert.True(t, strings.HasPrefix(preview, "+a\n"))
	assert.Contains(t, preview, "(3 lines total)")
}

func TestChangeInfo_Hash(t *testing.T) {
	assert.Equal(t, "", ChangeInfo{}.ShortHash())

	h := "0123456789abcdef"
	c := ChangeInfo{CommitHash: &h}
	assert.Equal(t, h, c.Hash())
	assert.Equal(t, "0123456", c.ShortHash())
}

func TestChangeInfo_Files(t *testing.T) {
	c := ChangeInfo{DiffText: sampleDiff}

	files := c.Files()
	require.Len(t, files, 2)

	assert.Equal(t, "main.go", files[0].Name())
	assert.Equal(t, 3, files[0].AddedLines)
	assert.Equal(t, 1, files[0].DeletedLines)

	assert.True(t, files[1].IsNew)
	assert.Equal(t, "README.md", files[1].Name())
	assert.Equal(t, 1, files[1].AddedLines)

	assert.Nil(t, ChangeInfo{}.Files())
}
