package cache

import (
	"strconv"
	"strings"
)

func ProductListKey(page, limit int, category, search *string) string {
	c := ""
	if category != nil {
		c = strings.TrimSpace(*category)
	}
	s := ""
	if search != nil {
		s = strings.ToLower(strings.TrimSpace(*search))
	}

	return "products:list:v1:page=" + strconv.Itoa(page) +
		":limit=" + strconv.Itoa(limit) +
		":category=" + strconv.Quote(c) +
		":search=" + strconv.Quote(s)
}
