package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelcast/internal/deps"
	"reelcast/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset        = "\x1b[0m"
	statusLabelWidth = 24
	statusIndent     = "  "
)

var statusStyles = [...]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

var headingCaser = cases.Title(language.English)

// renderStatusLine aligns "label: [KIND] message" under a two-space indent.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", headingCaser.String(strings.TrimSpace(title)))
	rule := strings.Repeat("-", len(line))
	if colorize {
		blue := statusStyles[statusInfo].color
		line = blue + line + ansiReset
		rule = blue + rule + ansiReset
	}
	return []string{line, rule}
}

// dependencyLines renders binary checks. Missing optional binaries are
// warnings; missing required ones are errors and are listed again at the end.
func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if location := firstNonEmpty(dep.Path, dep.Command); location != "" {
				message = fmt.Sprintf("Ready (%s)", location)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if missing := deps.Missing(statuses); len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
