// Package util holds small formatting helpers shared by commands.
package util

import (
	"strings"
	"time"
)

// dateTokens maps layout placeholders to Go reference values. Longer tokens
// come first so YYYY wins over YY.
var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatDate renders t using a placeholder layout such as
// "YYYY-MM-DD hh:mm:ss". A zero time renders as "".
//
//	FormatDate(t, "DD/MM/YYYY") // "10/11/2023"
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTokens.Replace(layout))
}
