// Package view holds the embedded HTML templates and their helper functions.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const dateLayout = "Jan 2, 2006"

// Templates parses every embedded template with FuncMap installed.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// FuncMap returns the helpers available inside templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"formatDate": FormatDate,
		"relativeTime": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return RelativeTime(time.Now(), *t)
		},
	}
}

// FormatDate 格式化发布日期，未发布时返回空字符串
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

// RelativeTime renders t relative to now, e.g. "5 minutes ago".
// Future times and anything under a minute read "just now".
func RelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	case diff < 365*24*time.Hour:
		return plural(int(diff/(30*24*time.Hour)), "month")
	}
	return plural(int(diff/(365*24*time.Hour)), "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
