package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
)

var (
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)

	ReviewEmoji  = "🔍"
	SuccessEmoji = Success.Sprint("✅")
	WarningEmoji = Warning.Sprint("⚠️")
	InfoEmoji    = Info.Sprint("ℹ️")
	ErrorEmoji   = Error.Sprint("❌")
)

// SmartSpinner is a spinner that degrades to a single line when output is not interactive.
type SmartSpinner struct {
	spinner *spinner.Spinner
	w       io.Writer
	message string
	enabled bool
}

// NewSmartSpinner creates a spinner writing to w. Animation runs only when animate is true.
func NewSmartSpinner(w io.Writer, message string, animate bool) *SmartSpinner {
	s := spinner.New(
		spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+ReviewEmoji+" "+message),
		spinner.WithWriter(w),
	)
	return &SmartSpinner{spinner: s, w: w, message: message, enabled: animate}
}

func (s *SmartSpinner) Start() {
	if !s.enabled {
		_, _ = fmt.Fprintf(s.w, "%s %s\n", Dim.Sprint("…"), s.message)
		return
	}
	s.spinner.Start()
}

func (s *SmartSpinner) Stop() {
	if s.enabled {
		s.spinner.Stop()
	}
}

// UpdateMessage replaces the running step's text. Without animation the new step is printed as a line.
func (s *SmartSpinner) UpdateMessage(msg string) {
	s.message = msg
	s.spinner.Suffix = " " + ReviewEmoji + " " + msg
	if !s.enabled {
		_, _ = fmt.Fprintf(s.w, "%s %s\n", Dim.Sprint("…"), msg)
	}
}

func (s *SmartSpinner) Success(msg string) {
	s.Stop()
	PrintSuccess(s.w, msg)
}

func (s *SmartSpinner) Error(msg string) {
	s.Stop()
	PrintError(s.w, msg)
}

func (s *SmartSpinner) Warning(msg string) {
	s.Stop()
	PrintWarning(s.w, msg)
}

func PrintSuccess(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", SuccessEmoji, Success.Sprint(msg))
}

func PrintError(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", ErrorEmoji, Error.Sprint(msg))
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", WarningEmoji, Warning.Sprint(msg))
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", InfoEmoji, Info.Sprint(msg))
}

func PrintSectionBanner(w io.Writer, title string) {
	separator := color.New(color.FgCyan).Sprint("━━━━━━━━━━━━━━━━━━━━━━━")
	_, _ = fmt.Fprintf(w, "\n%s\n", separator)
	_, _ = fmt.Fprintf(w, "%s %s\n", ReviewEmoji, Accent.Sprint(title))
	_, _ = fmt.Fprintf(w, "%s\n\n", separator)
}

func PrintDuration(w io.Writer, msg string, duration time.Duration) {
	durationStr := Dim.Sprintf("(%s)", duration.Round(10*time.Millisecond))
	_, _ = fmt.Fprintf(w, "%s %s %s\n", SuccessEmoji, Success.Sprint(msg), durationStr)
}

func PrintKeyValue(w io.Writer, key, value string) {
	keyColored := Dim.Sprint(key + ":")
	valueColored := color.New(color.FgWhite, color.Bold).Sprint(value)
	_, _ = fmt.Fprintf(w, "   %s %s\n", keyColored, valueColored)
}

// SeverityColor picks the color used to print a severity label.
func SeverityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityHigh:
		return Error
	case models.SeverityMedium:
		return Warning
	default:
		return Success
	}
}

// HandleAppError prints a fatal error as "[code] message" followed by details and a suggestion.
// If translations is nil, English labels are used.
func HandleAppError(w io.Writer, err error, t *i18n.Translations) {
	if err == nil {
		return
	}

	label := func(id, fallback string) string {
		if t == nil {
			return fallback
		}
		return t.GetMessage(id, 0, nil)
	}

	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) {
		PrintError(w, err.Error())
		return
	}

	_, _ = fmt.Fprintln(w)
	_, _ = Error.Fprintf(w, "❌ [%s] %s\n", appErr.Code, appErr.Message)
	_, _ = Dim.Fprintf(w, "   %s: %s\n", label("error_type", "Error type"), appErr.Type)

	if appErr.Err != nil {
		_, _ = Dim.Fprintf(w, "   %s: %v\n", label("error_details", "Details"), appErr.Err)
	}
	if status, ok := appErr.Context["status"].(int); ok {
		_, _ = Dim.Fprintf(w, "   HTTP %d", status)
		if body, ok := appErr.Context["body"].(string); ok && body != "" {
			_, _ = Dim.Fprintf(w, ": %s", truncate(body, 500))
		}
		_, _ = fmt.Fprintln(w)
	}

	if appErr.Suggestion != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = Info.Fprintf(w, "💡 %s: ", label("error_suggestion", "Suggestion"))
		for i, line := range strings.Split(appErr.Suggestion, "\n") {
			if i == 0 {
				_, _ = fmt.Fprintln(w, line)
			} else {
				_, _ = fmt.Fprintf(w, "       %s\n", line)
			}
		}
	}
	_, _ = fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// IsInteractive reports whether w is a terminal with colors enabled.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && !color.NoColor
}

// WithSpinner runs fn while a spinner shows message.
func WithSpinner(w io.Writer, message string, fn func() error) error {
	s := NewSmartSpinner(w, message, IsInteractive(w))
	s.Start()

	start := time.Now()
	err := fn()
	if err != nil {
		s.Stop()
		return err
	}

	s.Stop()
	PrintDuration(w, message, time.Since(start))
	return nil
}

// treeNode represents a node in the file tree
type treeNode struct {
	name     string
	isFile   bool
	change   *models.FileChange
	children map[string]*treeNode
}

// ShowFilesTree prints changed files as a directory tree with per-file line stats.
func ShowFilesTree(w io.Writer, files []models.FileChange, headerMessage string) {
	if len(files) == 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", headerMessage)
	printTree(w, buildFileTree(files), "", true)
}

func buildFileTree(changes []models.FileChange) *treeNode {
	root := &treeNode{children: make(map[string]*treeNode)}

	for i := range changes {
		change := &changes[i]
		path := change.NewName
		if path == "" || change.IsDeleted {
			path = change.OldName
		}

		parts := strings.Split(path, "/")
		current := root
		for j, part := range parts {
			isFile := j == len(parts)-1
			if current.children[part] == nil {
				current.children[part] = &treeNode{
					name:     part,
					isFile:   isFile,
					children: make(map[string]*treeNode),
				}
				if isFile {
					current.children[part].change = change
				}
			}
			current = current.children[part]
		}
	}
	return root
}

func printTree(w io.Writer, node *treeNode, prefix string, isLast bool) {
	if node.name != "" {
		connector := "├── "
		if isLast {
			connector = "└── "
		}

		name := node.name
		if !node.isFile {
			name = Info.Sprint(name + "/")
		}

		stats := ""
		if node.isFile && node.change != nil {
			statsColor := color.New(color.FgGreen)
			if node.change.DeletedLines > node.change.AddedLines {
				statsColor = color.New(color.FgRed)
			}
			stats = statsColor.Sprintf(" (+%d, -%d)", node.change.AddedLines, node.change.DeletedLines)
		}

		_, _ = fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, name, stats)
	}

	childPrefix := prefix
	if node.name != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	// directories first, then files, each alphabetically
	sort.Slice(keys, func(i, j int) bool {
		a, b := node.children[keys[i]], node.children[keys[j]]
		if a.isFile != b.isFile {
			return !a.isFile
		}
		return keys[i] < keys[j]
	})

	for i, key := range keys {
		printTree(w, node.children[key], childPrefix, i == len(keys)-1)
	}
}
