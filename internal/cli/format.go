package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// fatih/color 自动检测 TTY，非终端输出时不带颜色
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

func printError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

func printLabelValue(w io.Writer, label string, value any) {
	_, _ = labelColor.Fprintf(w, "  %s: ", label)
	fmt.Fprintln(w, value)
}

// printList 列出条目，超过 limit 时折叠剩余部分
func printList(w io.Writer, items []string, limit int) {
	for i, item := range items {
		if limit > 0 && i == limit {
			_, _ = dimColor.Fprintf(w, "    … 另有 %d 项\n", len(items)-limit)
			return
		}
		fmt.Fprintf(w, "    • %s\n", item)
	}
}
