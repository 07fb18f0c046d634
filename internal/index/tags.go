package index

import (
	"regexp"

	"github.com/aidanlsb/outsearch/internal/outline"
)

// hashTagRegex matches #word tokens that start a word, so "a#b" and
// "example.com/#anchor" are not tags.
var hashTagRegex = regexp.MustCompile(`(?:^|[\s(\[{,;])#([\p{L}\p{N}_][\p{L}\p{N}_\-/]*)`)

// ExtractTags returns the node's tags: metadata tags, then inline tag mark
// labels, then #tokens in the text. Duplicates are dropped case-sensitively,
// keeping the first occurrence.
func ExtractTags(node outline.Node) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, t := range node.Meta.Tags {
		add(t)
	}
	for _, span := range node.Inline {
		for _, mark := range span.Marks {
			if mark.Type == outline.MarkTag {
				add(mark.Attrs["label"])
			}
		}
	}
	for _, m := range hashTagRegex.FindAllStringSubmatch(node.Text, -1) {
		add(m[1])
	}
	return tags
}
