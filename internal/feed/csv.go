// internal/feed/csv.go
package feed

import "strings"

// Tokenize splits raw CSV text into rows of fields.
//
// Fields are separated by commas. Double quotes delimit fields that contain
// commas or line breaks, and a doubled quote inside a quoted field yields one
// literal quote. "\n", "\r\n" and "\r" end a row only outside quotes. A final
// row without a line terminator is kept when it has any content.
func Tokenize(text string) [][]string {
	var (
		rows  [][]string
		row   []string
		cell  strings.Builder
		quote bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"' && quote && i+1 < len(text) && text[i+1] == '"':
			cell.WriteByte('"')
			i++
		case c == '"':
			quote = !quote
		case c == ',' && !quote:
			row = append(row, cell.String())
			cell.Reset()
		case (c == '\n' || c == '\r') && !quote:
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			row = append(row, cell.String())
			rows = append(rows, row)
			row = nil
			cell.Reset()
		default:
			cell.WriteByte(c)
		}
	}

	if cell.Len() > 0 || len(row) > 0 {
		row = append(row, cell.String())
		rows = append(rows, row)
	}
	return rows
}

// Records tokenizes text and drops the header row.
func Records(text string) [][]string {
	rows := Tokenize(text)
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

// Quote renders field as a CSV field, quoting it when it holds a comma,
// a quote or a line break.
func Quote(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
