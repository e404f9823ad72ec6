package utils

import "fmt"

// FormatDocumentNumber renders prefix + counter left-padded with zeros to width digits
func FormatDocumentNumber(prefix string, value int64, width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s%0*d", prefix, width, value)
}
