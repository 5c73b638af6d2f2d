package util

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalSortLess(t *testing.T) {
	testCases := []struct {
		a, b string
		want bool
	}{
		{"file1.xml", "file10.xml", true},
		{"file10.xml", "file2.xml", false},
		{"20190101.xml", "20190102.xml", true},
		{"v1.2", "v1.10", true},
		{"v1.0.10", "v1.0.2", false},
		{"file", "file1", true},
		{"file1", "file", false},
		{"a", "b", true},
		{"File1", "file1", false},
		{"file1", "File1", false},
		{"item-1a", "item-1b", true},
		{"café1", "café2", true},
		{"café", "cafe", false},
		{" file1", "file1", true},
		{"file1 ", "file1", false},
		{"file007", "file7", false},
		{"file7", "file007", false},
		{"x99999999999999999999999", "x100000000000000000000000", true},
		{"same", "same", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, NaturalSortLess(tc.a, tc.b), "NaturalSortLess(%q, %q)", tc.a, tc.b)
	}
}

func TestNaturalSortLess_SortsExportNames(t *testing.T) {
	names := []string{
		"EdmRegisterWertExport_10.xml",
		"EdmRegisterWertExport_2.xml",
		"20190310_093127_12X-0000001216-O_E66_12X-LIPPUNEREM-T_ESLEVU121963_-279617263.xml",
		"EdmRegisterWertExport_1.xml",
	}
	sort.Slice(names, func(i, j int) bool { return NaturalSortLess(names[i], names[j]) })
	assert.Equal(t, []string{
		"20190310_093127_12X-0000001216-O_E66_12X-LIPPUNEREM-T_ESLEVU121963_-279617263.xml",
		"EdmRegisterWertExport_1.xml",
		"EdmRegisterWertExport_2.xml",
		"EdmRegisterWertExport_10.xml",
	}, names)
}
