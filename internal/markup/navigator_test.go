package markup

import (
	"testing"

	"github.com/antchfx/xpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meterDoc = `<rsm:ValidatedMeteredData xmlns:rsm="urn:sdat">
  <rsm:Header><rsm:InstanceDocument id="doc-1"/></rsm:Header>
  <rsm:Observation><rsm:Volume>1.5</rsm:Volume></rsm:Observation>
  <rsm:Observation><rsm:Volume>2.5</rsm:Volume></rsm:Observation>
</rsm:ValidatedMeteredData>`

func TestSelect(t *testing.T) {
	doc, err := Parse([]byte(meterDoc))
	require.NoError(t, err)

	nodes, err := Select(doc, "//*[local-name()='Volume']")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "1.5", nodes[0].InnerText())
	assert.Equal(t, "2.5", nodes[1].InnerText())

	_, err = Select(doc, "//[")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	doc, err := Parse([]byte(meterDoc))
	require.NoError(t, err)

	cases := []struct {
		expr string
		want bool
	}{
		{"/*[local-name()='ValidatedMeteredData']", true},
		{"/*[local-name()='ESLBillingData']", false},
		{"count(//*[local-name()='Observation']) = 2", true},
		{"count(//*[local-name()='Observation'])", true},
		{"string(//*[local-name()='InstanceDocument']/@id)", true},
		{"string(//missing)", false},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(doc, xpath.MustCompile(tc.expr)))
		})
	}
}
