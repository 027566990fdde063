package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/segclock/internal/display/ht16k33"
)

// Segment bits, as in the HT16K33 font.
const (
	segA = 1 << iota
	segB
	segC
	segD
	segE
	segF
	segG
)

// RenderFrame draws a frame as three rows of seven-segment art. Unlit
// segments are blank.
func RenderFrame(f ht16k33.Frame, lit lipgloss.Style) string {
	seg := func(pattern byte, bit byte, ch string) string {
		if pattern&bit == 0 {
			return " "
		}
		return lit.Render(ch)
	}

	var rows [3]strings.Builder
	for i, d := range f.Digits {
		if i == 2 {
			dot := " "
			if f.Colon {
				dot = lit.Render("•")
			}
			rows[0].WriteString("  ")
			rows[1].WriteString(dot + " ")
			rows[2].WriteString(dot + " ")
		}
		rows[0].WriteString(" " + seg(d, segA, "_") + " ")
		rows[1].WriteString(seg(d, segF, "|") + seg(d, segG, "_") + seg(d, segB, "|"))
		rows[2].WriteString(seg(d, segE, "|") + seg(d, segD, "_") + seg(d, segC, "|"))
		if i < len(f.Digits)-1 {
			for r := range rows {
				rows[r].WriteString(" ")
			}
		}
	}
	return rows[0].String() + "\n" + rows[1].String() + "\n" + rows[2].String()
}
