package osmpbf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entityStream = `{"type":"node","id":1,"lat":48.1,"lon":2.1,"tags":{"amenity":"cafe"}}
{"type":"way","id":10,"refs":[1,2],"tags":{"highway":"residential"}}

{"type":"relation","id":100,"members":[{"kind":"way","ref":10,"role":"outer"}],"tags":{"boundary":"administrative"}}
`

func TestLoadJSONSourceParsesAllEntityKinds(t *testing.T) {
	src, err := LoadJSONSource(strings.NewReader(entityStream))
	require.NoError(t, err)

	var nodes []Node
	for n := range src.Nodes() {
		nodes = append(nodes, n)
	}
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(1), nodes[0].ID)

	var ways []Way
	for w := range src.Ways() {
		ways = append(ways, w)
	}
	require.Len(t, ways, 1)
	assert.Equal(t, []int64{1, 2}, ways[0].Refs)

	var rels []Relation
	for r := range src.Relations() {
		rels = append(rels, r)
	}
	require.Len(t, rels, 1)
	assert.Equal(t, "outer", rels[0].Members[0].Role)
}

func TestLoadJSONSourceRejectsUnknownType(t *testing.T) {
	_, err := LoadJSONSource(strings.NewReader(`{"type":"bogus","id":1}` + "\n"))
	assert.Error(t, err)
}
