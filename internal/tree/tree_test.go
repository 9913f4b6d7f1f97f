package tree

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     uint  `json:"id"`
	Parent *uint `json:"parent"`
	Sort   int   `json:"sort"`
}

func (i item) TreeID() uint        { return i.ID }
func (i item) TreeParentID() *uint { return i.Parent }
func (i item) TreeSortOrder() int  { return i.Sort }

func ptr(v uint) *uint { return &v }

func ids(nodes []*Node[item]) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Item.ID)
	}

	return out
}

func TestBuildOrdersSiblings(t *testing.T) {
	items := []item{
		{ID: 5, Parent: ptr(1), Sort: 2},
		{ID: 1, Sort: 1},
		{ID: 4, Parent: ptr(1), Sort: 1},
		{ID: 3, Parent: ptr(1), Sort: 1},
		{ID: 2, Sort: 0},
	}

	forest := Build(items)

	require.Len(t, forest, 2)
	assert.Equal(t, []uint{2, 1}, ids(forest))
	assert.Equal(t, []uint{3, 4, 5}, ids(forest[1].Children), "ties are broken by id")
	assert.NotNil(t, forest[0].Children)
	assert.Empty(t, forest[0].Children)
}

func TestBuildOrphansBecomeRoots(t *testing.T) {
	forest := Build([]item{
		{ID: 1},
		{ID: 2, Parent: ptr(99)},
		{ID: 3, Parent: ptr(2)},
	})

	assert.Equal(t, []uint{1, 2}, ids(forest))
	assert.Equal(t, []uint{3}, ids(forest[1].Children))
}

func TestBuildBreaksCycles(t *testing.T) {
	forest := Build([]item{
		{ID: 1, Parent: ptr(2)},
		{ID: 2, Parent: ptr(1)},
		{ID: 3},
	})

	assert.ElementsMatch(t, []uint{1, 2, 3}, idsOf(Flatten(forest)))
}

func TestChildrenSerializeAsEmptyList(t *testing.T) {
	out, err := json.Marshal(Build([]item{{ID: 1}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"item":{"id":1,"parent":null,"sort":0},"children":[]}]`, string(out))
}

func idsOf(items []item) []uint {
	out := make([]uint, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}

	return out
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 20; run++ {
		var items []item

		for id := uint(1); id <= 60; id++ {
			it := item{ID: id, Sort: r.IntN(4)}
			if id > 1 && r.IntN(4) > 0 {
				it.Parent = ptr(uint(r.IntN(int(id-1))) + 1)
			}

			items = append(items, it)
		}

		r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		flat := Flatten(Build(items))

		require.Len(t, flat, len(items))

		want := make(map[uint]*uint, len(items))
		for _, it := range items {
			want[it.ID] = it.Parent
		}

		for _, it := range flat {
			assert.Equal(t, want[it.ID], it.Parent)
		}
	}
}

func TestWalkDepth(t *testing.T) {
	forest := Build([]item{{ID: 1}, {ID: 2, Parent: ptr(1)}, {ID: 3, Parent: ptr(2)}})

	depths := map[uint]int{}
	Walk(forest, func(n *Node[item], depth int) { depths[n.Item.ID] = depth })

	assert.Equal(t, map[uint]int{1: 0, 2: 1, 3: 2}, depths)
}

func TestMap(t *testing.T) {
	type named struct {
		ID       uint
		Children []named
	}

	out := Map(Build([]item{{ID: 1}, {ID: 2, Parent: ptr(1)}}), func(n *Node[item], children []named) named {
		return named{ID: n.Item.ID, Children: children}
	})

	require.Len(t, out, 1)
	require.Len(t, out[0].Children, 1)
	assert.Equal(t, uint(2), out[0].Children[0].ID)
}
