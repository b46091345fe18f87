// Package directory holds the traffic-type reference data used to match
// advertisers with affiliates that have not yet run their offers.
//
// Lookups are pure functions over ordered entries: the first entry (in
// insertion order) whose normalized name contains, or is contained in, the
// normalized query wins.
package directory

import (
	"strings"
)

// Tag is a traffic type.
type Tag string

const (
	TagXDJ   Tag = "xdj"
	TagInapp Tag = "inapp"
)

// Tags is an ordered set of traffic types; the first tag is the primary one.
type Tags []Tag

// ParseTags parses a slash-separated tag list such as "xdj/inapp".
// Blank segments are ignored and a trailing " traffic" suffix is accepted.
func ParseTags(s string) Tags {
	var tags Tags
	for _, part := range strings.Split(s, "/") {
		part = strings.ToLower(strings.TrimSpace(part))
		part = strings.TrimSpace(strings.TrimSuffix(part, "traffic"))
		if part == "" || tags.Has(Tag(part)) {
			continue
		}
		tags = append(tags, Tag(part))
	}
	return tags
}

// Has reports whether t is in the set.
func (ts Tags) Has(t Tag) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share a tag.
func (ts Tags) Intersects(other Tags) bool {
	for _, t := range ts {
		if other.Has(t) {
			return true
		}
	}
	return false
}

func (ts Tags) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, "/")
}

// Entry maps a directory name to its traffic types.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Tags Tags   `yaml:"-" json:"-"`
	Type string `yaml:"type" json:"type"`
}

// NewEntry builds an entry from a name and a slash-separated type.
func NewEntry(name, typ string) Entry {
	return Entry{Name: name, Type: typ, Tags: ParseTags(typ)}
}

// Directory is the ordered advertiser and affiliate traffic-type reference.
type Directory struct {
	Advertisers []Entry
	Affiliates  []Entry
}

// New builds a directory, parsing each entry's type when its tags are unset.
func New(advertisers, affiliates []Entry) *Directory {
	return &Directory{
		Advertisers: normalizeEntries(advertisers),
		Affiliates:  normalizeEntries(affiliates),
	}
}

func normalizeEntries(in []Entry) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		if len(e.Tags) == 0 {
			e.Tags = ParseTags(e.Type)
		}
		if e.Type == "" {
			e.Type = e.Tags.String()
		}
		out = append(out, e)
	}
	return out
}

// AdvertiserTags looks up an advertiser's traffic types.
func (d *Directory) AdvertiserTags(advertiser string) (Tags, bool) {
	if d == nil {
		return nil, false
	}
	return lookup(d.Advertisers, advertiser)
}

// AffiliateTags looks up an affiliate's traffic types.
func (d *Directory) AffiliateTags(affiliate string) (Tags, bool) {
	if d == nil {
		return nil, false
	}
	return lookup(d.Affiliates, affiliate)
}

func lookup(entries []Entry, name string) (Tags, bool) {
	key := normalizeName(name)
	if key == "" {
		return nil, false
	}
	for _, e := range entries {
		n := normalizeName(e.Name)
		if n == "" || len(e.Tags) == 0 {
			continue
		}
		if strings.Contains(key, n) || strings.Contains(n, key) {
			return e.Tags, true
		}
	}
	return nil, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
