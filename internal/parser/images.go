package parser

import "strings"

// ImageURL prefixes a site-relative image path with the site root.
func ImageURL(root, path string) string {
	return root + strings.TrimSpace(path)
}

// JoinImages builds absolute image URLs from relative paths and joins them
// with delim, keeping page order.
func JoinImages(root string, paths []string, delim string) string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, ImageURL(root, p))
	}
	return strings.Join(urls, delim)
}
