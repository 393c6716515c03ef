package book

import (
	"regexp"
)

// isbnPattern ISBN-10(末位可为X)或ISBN-13
var isbnPattern = regexp.MustCompile(`^\d{9}[\dX]$|^\d{13}$`)

// isbnSeparators 连字符与任意空白(空格、制表符、换行)
var isbnSeparators = regexp.MustCompile(`[-\s]`)

// NormalizeISBN 去除连字符与空白
// 例如: 978-0-306-40615-7 → 9780306406157
func NormalizeISBN(isbn string) string {
	return isbnSeparators.ReplaceAllString(isbn, "")
}

// IsValidISBN 校验ISBN格式
// 只校验位数与字符,不校验校验位
func IsValidISBN(isbn string) bool {
	return isbnPattern.MatchString(NormalizeISBN(isbn))
}
