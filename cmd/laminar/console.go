// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/laminar/services/laminar/scan"
)

const consolePrefix = "[laminar]"

// console prints human-oriented progress lines. Colors are used only when
// the writer is a terminal.
type console struct {
	w           io.Writer
	prefixStyle lipgloss.Style
	infoStyle   lipgloss.Style
	errStyle    lipgloss.Style
	valueStyle  lipgloss.Style
}

func newConsole(w io.Writer) *console {
	c := &console{
		w:           w,
		prefixStyle: lipgloss.NewStyle(),
		infoStyle:   lipgloss.NewStyle(),
		errStyle:    lipgloss.NewStyle(),
		valueStyle:  lipgloss.NewStyle(),
	}
	if isTerminal(w) {
		c.prefixStyle = c.prefixStyle.Foreground(lipgloss.Color("3"))
		c.infoStyle = c.infoStyle.Foreground(lipgloss.Color("2"))
		c.errStyle = c.errStyle.Foreground(lipgloss.Color("1"))
		c.valueStyle = c.valueStyle.Foreground(lipgloss.Color("4"))
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *console) line(msg string, args ...any) {
	parts := []string{c.prefixStyle.Render(consolePrefix), msg}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	fmt.Fprintln(c.w, strings.Join(parts, " "))
}

func (c *console) Log(msg string, args ...any)   { c.line(msg, args...) }
func (c *console) Info(msg string, args ...any)  { c.line(c.infoStyle.Render(msg), args...) }
func (c *console) Error(msg string, args ...any) { c.line(c.errStyle.Render(msg), args...) }

// Report prints the per-asset lines and totals of a scan.
func (c *console) Report(report *scan.Report) {
	c.Info("JavaScript assets:", len(report.Assets))
	for _, a := range report.Assets {
		size := c.valueStyle.Render(humanize.Bytes(uint64(a.Size)))
		switch a.Status {
		case scan.StatusFailed:
			c.Error("  failed", a.Name, size, a.Error)
		case scan.StatusCached:
			c.Log("  cached", a.Name, size, len(a.Candidates), "candidates")
		default:
			line := []any{a.Name, size, a.Literals, "literals,", len(a.Candidates), "candidates"}
			if a.ParseFailures > 0 {
				line = append(line, c.errStyle.Render(fmt.Sprintf("(%d parse failures)", a.ParseFailures)))
			}
			c.Log("  ", line...)
		}
	}
	c.Info("CSS class names count:", len(report.Candidates))
	c.Info("Filtered CSS class names count:", len(report.Filtered))
	if report.Failed > 0 {
		c.Error("Failed assets:", report.Failed)
	}
}
