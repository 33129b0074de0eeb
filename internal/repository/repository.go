package repository

import "strings"

func columnList(columns []string) string {
	return strings.Join(columns, ", ")
}
