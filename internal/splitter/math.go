package splitter

import (
	"regexp"
	"sort"
)

// region is a half-open byte range [start,end) of content that must stay in
// one chunk.
type region struct{ start, end int }

var mathDelimiterRes = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\\begin\{equation\*?\}.*?\\end\{equation\*?\}`),
	regexp.MustCompile(`(?s)\\begin\{align\*?\}.*?\\end\{align\*?\}`),
	regexp.MustCompile(`(?s)\\\[.*?\\\]`),
	regexp.MustCompile(`(?s)\$\$.+?\$\$`),
	regexp.MustCompile(`(?s)\$[^$]+\$`),
}

// mathHintRe spots math delimiters without tripping on plain prose dollar
// amounts: inline dollars only count when the body carries TeX syntax.
var mathHintRe = regexp.MustCompile(`\$\$|\\\[|\\begin\{(?:equation|align)|\$[^$\n]*[\\^_{][^$\n]*\$`)

func hasMathDelimiters(content string) bool {
	return mathHintRe.MatchString(content)
}

// mathRegions finds every delimited math expression in content as a sorted,
// non-overlapping region list. Display environments are matched before
// inline dollars so `$$…$$` is not consumed as two empty inline regions.
func mathRegions(content string) []region {
	var regions []region
	for _, re := range mathDelimiterRes {
		for _, m := range re.FindAllStringIndex(content, -1) {
			r := region{m[0], m[1]}
			if !overlapsAny(regions, r) {
				regions = append(regions, r)
			}
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })
	return regions
}

func overlapsAny(regions []region, r region) bool {
	for _, o := range regions {
		if r.start < o.end && o.start < r.end {
			return true
		}
	}
	return false
}

// regionContaining reports the region that strictly contains offset, if any.
// Offsets at a region's edges are valid cut points.
func regionContaining(regions []region, offset int) (region, bool) {
	for _, r := range regions {
		if offset > r.start && offset < r.end {
			return r, true
		}
	}
	return region{}, false
}
