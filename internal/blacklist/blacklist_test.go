package blacklist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlacklisted(t *testing.T) {
	s := New(
		Rule{Advertiser: "[1]AdvA"},
		Rule{Affiliate: "[9]AffZ"},
		Rule{Advertiser: "[2]AdvB", Affiliate: "[7]AffY"},
	)

	tests := []struct {
		name string
		adv  string
		aff  string
		want bool
	}{
		{"advertiser wildcard affiliate", "[1]AdvA", "[5]Any", true},
		{"advertiser-only blocks offer level", "[1]AdvA", "", true},
		{"affiliate wildcard advertiser", "[3]Other", "[9]AffZ", true},
		{"affiliate-only never blocks offer level", "[3]Other", "", false},
		{"exact pair", "[2]AdvB", "[7]AffY", true},
		{"pair needs both fields", "[2]AdvB", "[8]AffX", false},
		{"pair not offer level", "[2]AdvB", "", false},
		{"inputs are trimmed", "  [2]AdvB ", "[7]AffY  ", true},
		{"comparison is case sensitive", "[1]adva", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsBlacklisted(tt.adv, tt.aff))
		})
	}
}

func TestNew_DropsInvalidAndDuplicateRules(t *testing.T) {
	s := New(
		Rule{},
		Rule{Advertiser: "  ", Affiliate: " "},
		Rule{Advertiser: " A "},
		Rule{Advertiser: "A"},
	)
	assert.Equal(t, []Rule{{Advertiser: "A"}}, s.Rules())

	// a set holding only an invalid rule matches nothing
	empty := New(Rule{})
	assert.False(t, empty.IsBlacklisted("", ""))
	assert.False(t, empty.IsBlacklisted("A", "B"))
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.IsBlacklisted("A", "B"))
	assert.False(t, s.AdvertiserBlocked("A"))
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Rules())
}

func TestMerge(t *testing.T) {
	merged := Merge(New(Rule{Advertiser: "A"}), nil, New(Rule{Advertiser: "A"}, Rule{Affiliate: "B"}))
	assert.Equal(t, 2, merged.Len())
	assert.True(t, merged.IsBlacklisted("X", "B"))
}

func TestFromRows(t *testing.T) {
	s, err := FromRows(
		[]string{"\ufeffAdvertiser", "Affiliate", "Note"},
		[][]string{
			{"[1]AdvA", ""},
			{"", "[9]AffZ", "comment"},
			{"", ""},
			{"[2]AdvB"},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.AdvertiserBlocked("[2]AdvB"))
	assert.True(t, s.IsBlacklisted("x", "[9]AffZ"))
}

func TestFromRows_MissingColumns(t *testing.T) {
	for _, header := range [][]string{
		{"Advertiser"},
		{"Affiliate", "Notes"},
		{},
	} {
		_, err := FromRows(header, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingColumns))
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, 22, s.Len())
	assert.True(t, s.AdvertiserBlocked("[110008]Shareit"))
	assert.True(t, s.IsBlacklisted("[999]Anyone", "[113]ioger"))
	assert.True(t, s.IsBlacklisted("[110021]flymobi", "[136]Bytemobi_xdj"))
	assert.False(t, s.IsBlacklisted("[110021]flymobi", "[124]wldon_xdj"))
	assert.False(t, s.AdvertiserBlocked("[110021]flymobi"))
}
