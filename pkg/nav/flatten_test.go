package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenLeafCount(t *testing.T) {
	// Three shapes, each with four leaves.
	trees := map[string]*NavigationNode{
		"flat": {
			NodeID: "root", Label: "Root",
			Children: []*NavigationNode{
				{NodeID: "a", Label: "A"},
				{NodeID: "b", Label: "B"},
				{NodeID: "c", Label: "C"},
				{NodeID: "d", Label: "D"},
			},
		},
		"nested": {
			NodeID: "root", Label: "Root",
			Children: []*NavigationNode{
				{NodeID: "m1", Label: "Menu 1", Children: []*NavigationNode{
					{NodeID: "a", Label: "A"},
					{NodeID: "b", Label: "B"},
				}},
				{NodeID: "m2", Label: "Menu 2", Children: []*NavigationNode{
					{NodeID: "c", Label: "C"},
					{NodeID: "d", Label: "D"},
				}},
			},
		},
		"skewed": {
			NodeID: "root", Label: "Root",
			Children: []*NavigationNode{
				{NodeID: "a", Label: "A"},
				{NodeID: "m1", Label: "Menu 1", Children: []*NavigationNode{
					{NodeID: "b", Label: "B"},
					{NodeID: "m2", Label: "Menu 2", Children: []*NavigationNode{
						{NodeID: "c", Label: "C"},
						{NodeID: "d", Label: "D"},
					}},
				}},
			},
		},
	}

	for name, root := range trees {
		t.Run(name, func(t *testing.T) {
			flattened, err := Flatten(root)
			require.NoError(t, err)
			assert.Len(t, flattened, 4)
		})
	}
}

func TestFlattenParentChains(t *testing.T) {
	leaf := &NavigationNode{NodeID: "leaf", Label: "Leaf"}
	mid := &NavigationNode{NodeID: "mid", Label: "Mid", Children: []*NavigationNode{leaf}}
	root := &NavigationNode{NodeID: "root", Label: "Root", Children: []*NavigationNode{mid}}

	flattened, err := Flatten(root)
	require.NoError(t, err)
	require.Len(t, flattened, 1)

	assert.Same(t, leaf, flattened[0].Node)
	require.Len(t, flattened[0].Parents, 2)
	assert.Same(t, root, flattened[0].Parents[0])
	assert.Same(t, mid, flattened[0].Parents[1])
	assert.Equal(t, []string{"Root", "Mid"}, flattened[0].ParentLabels())
}

func TestFlattenPreservesTreeOrder(t *testing.T) {
	root := &NavigationNode{
		NodeID: "root", Label: "Root",
		Children: []*NavigationNode{
			{NodeID: "first", Label: "First"},
			{NodeID: "menu", Label: "Menu", Children: []*NavigationNode{
				{NodeID: "second", Label: "Second"},
				{NodeID: "third", Label: "Third"},
			}},
			{NodeID: "fourth", Label: "Fourth"},
		},
	}

	flattened, err := Flatten(root)
	require.NoError(t, err)

	var ids []string
	for _, fn := range flattened {
		ids = append(ids, fn.Node.NodeID)
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, ids)
}

func TestFlattenRootIsLeaf(t *testing.T) {
	root := &NavigationNode{NodeID: "root", Label: "Root", URL: "/"}
	flattened, err := Flatten(root)
	require.NoError(t, err)
	require.Len(t, flattened, 1)
	assert.Empty(t, flattened[0].Parents)
}

func TestFlattenNilRoot(t *testing.T) {
	flattened, err := Flatten(nil)
	require.NoError(t, err)
	assert.Empty(t, flattened)
}

func TestFlattenRejectsCycle(t *testing.T) {
	a := &NavigationNode{NodeID: "a", Label: "A"}
	b := &NavigationNode{NodeID: "b", Label: "B", Children: []*NavigationNode{a}}
	a.Children = []*NavigationNode{b}

	_, err := Flatten(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestFlattenRejectsSharedSubtree(t *testing.T) {
	shared := &NavigationNode{NodeID: "shared", Label: "Shared"}
	root := &NavigationNode{
		NodeID: "root", Label: "Root",
		Children: []*NavigationNode{
			{NodeID: "m1", Label: "M1", Children: []*NavigationNode{shared}},
			{NodeID: "m2", Label: "M2", Children: []*NavigationNode{shared}},
		},
	}

	_, err := Flatten(root)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestFlattenRejectsNilChild(t *testing.T) {
	root := &NavigationNode{
		NodeID: "root", Label: "Root",
		Children: []*NavigationNode{nil},
	}
	_, err := Flatten(root)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestFlattenDeepTree(t *testing.T) {
	// A pathological 100k-deep chain must not overflow the stack.
	leaf := &NavigationNode{NodeID: "leaf", Label: "Leaf"}
	node := leaf
	for i := 0; i < 100000; i++ {
		node = &NavigationNode{NodeID: "n", Label: "N", Children: []*NavigationNode{node}}
	}

	flattened, err := Flatten(node)
	require.NoError(t, err)
	require.Len(t, flattened, 1)
	assert.Same(t, leaf, flattened[0].Node)
	assert.Len(t, flattened[0].Parents, 100000)
}

func TestRewriteAdminURLs(t *testing.T) {
	root := &NavigationNode{
		NodeID: "root", Label: "Root",
		Children: []*NavigationNode{
			{NodeID: "orders", Label: "Orders", URL: "/admin/orders?page=1"},
			{NodeID: "menu", Label: "Menu", Children: []*NavigationNode{
				{NodeID: "fines", Label: "Fines", URL: "/admin/fines"},
			}},
		},
	}

	RewriteAdminURLs(root)

	assert.Equal(t, "/go/me?next=%2Fadmin%2Forders%3Fpage%3D1", root.Children[0].URL)
	assert.Equal(t, "/go/me?next=%2Fadmin%2Ffines", root.Children[1].Children[0].URL)
	assert.Empty(t, root.URL)
}

func TestApplyUsage(t *testing.T) {
	root := &NavigationNode{
		NodeID: "root", Label: "Root",
		Children: []*NavigationNode{
			{NodeID: "orders", Label: "Orders", URL: "/orders"},
			{NodeID: "products", Label: "Products", URL: "/products"},
		},
	}

	ApplyUsage(root, map[string]Usage{
		"/orders": {TotalHits: 12, MostRecentHit: 1700000000},
	})

	orders := root.Children[0]
	require.NotNil(t, orders.TotalHits)
	require.NotNil(t, orders.MostRecentHit)
	assert.EqualValues(t, 12, *orders.TotalHits)
	assert.EqualValues(t, 1700000000, *orders.MostRecentHit)
	assert.Nil(t, root.Children[1].TotalHits)
}
