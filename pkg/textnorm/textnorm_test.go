package textnorm_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/textnorm"
	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, in, out string
	}{
		{"empty", "", ""},
		{"trim", "  Central  ", "Central"},
		{"collapse", "Star   Ferry\tPier", "Star Ferry Pier"},
		{"ideographic space", "中環　碼頭", "中環 碼頭"},
		{"cjk untouched", "將軍澳", "將軍澳"},
	}
	for _, v := range tests {
		assert.Equal(v.out, textnorm.CleanName(v.in), v.msg)
	}
}

func TestNormalizeEN(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, in, out string
	}{
		{"empty", "", ""},
		{"brackets", "Tsim Sha Tsui (Star Ferry)", "Tsim Sha Tsui Star Ferry"},
		{"commas", "Kowloon,  Mong Kok", "Kowloon Mong Kok"},
		{"plain", "Central", "Central"},
	}
	for _, v := range tests {
		assert.Equal(v.out, textnorm.NormalizeEN(v.in), v.msg)
	}
}

func TestSegmentCJK(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, in, out string
	}{
		{"empty", "", ""},
		{"tseung kwan o", "將軍澳", "將 軍 澳"},
		{"mixed", "九龍城(A1)", "九 龍 城 A1"},
		{"kept symbols", "A+B/C", "A+B/C"},
		{"punctuation", "中環，碼頭", "中 環 碼 頭"},
		{"spaces", " 中  環 ", "中 環"},
	}
	for _, v := range tests {
		assert.Equal(v.out, textnorm.SegmentCJK(v.in), v.msg)
	}
}

func TestPrepareQuery(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, in, out string
	}{
		{"empty", "  ", ""},
		{"latin", "central", `"central"`},
		{"latin prefix", "cent*", `"cent"*`},
		{"cjk", "將軍澳", `"將" "軍" "澳"`},
		{"cjk prefix", "澳*", `"澳"*`},
		{"quote", `a"b`, `"a""b"`},
		{"several", "9A central", `"9A" "central"`},
	}
	for _, v := range tests {
		assert.Equal(v.out, textnorm.PrepareQuery(v.in), v.msg)
	}
}
