package model

import "strings"

func matchesQuery(item Item, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.Author), q) ||
		strings.Contains(strings.ToLower(item.GroupCode), q) {
		return true
	}
	for _, t := range item.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
