/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package table renders bordered text tables for the command line.
package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// minWidth 最小列宽
const minWidth = 4

// Write renders rows under the given column headers followed by a row count.
// Missing cells print empty; cells beyond the header count are dropped.
func Write(w io.Writer, columns []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if len(rows) == 0 {
		fmt.Fprintln(bw, "(0 rows)")
		return bw.Flush()
	}

	widths := ColumnWidths(columns, rows)

	writeBorder(bw, widths)
	writeRow(bw, widths, columns)
	writeBorder(bw, widths)
	for _, row := range rows {
		writeRow(bw, widths, row)
	}
	writeBorder(bw, widths)

	fmt.Fprintf(bw, "(%d rows)\n", len(rows))
	return bw.Flush()
}

// ColumnWidths returns the display width of each column, counted in runes.
func ColumnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = max(utf8.RuneCountInString(col), minWidth)
		for _, row := range rows {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}
	return widths
}

func writeBorder(w io.Writer, widths []int) {
	var b strings.Builder
	b.WriteByte('+')
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteByte('+')
	}
	fmt.Fprintln(w, b.String())
}

func writeRow(w io.Writer, widths []int, cells []string) {
	var b strings.Builder
	b.WriteByte('|')
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteByte(' ')
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(cell)))
		b.WriteString(" |")
	}
	fmt.Fprintln(w, b.String())
}
