package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/commercekit/chrome/pkg/nav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWithParents(title, url string, typ ResultType, parentIDs ...string) Result {
	parents := make([]*nav.NavigationNode, 0, len(parentIDs))
	for _, id := range parentIDs {
		parents = append(parents, &nav.NavigationNode{NodeID: id, Label: id})
	}
	wn := &nav.WeightedNode{FlattenedNode: nav.FlattenedNode{
		Node:    &nav.NavigationNode{NodeID: title, Label: title, URL: url},
		Parents: parents,
	}}
	return Result{URL: url, Type: typ, Title: title, Payload: wn}
}

func TestGroupCapping(t *testing.T) {
	var ranked []Result
	for i := 0; i < 10; i++ {
		ranked = append(ranked, Result{
			URL:   fmt.Sprintf("/page-%d", i),
			Type:  TypePage,
			Title: fmt.Sprintf("Page %d", i),
		})
	}

	groups := GroupResults(ranked)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Results, 3)
	// The cap keeps the top three by rank.
	assert.Equal(t, "/page-0", groups[0].Results[0].URL)
	assert.Equal(t, "/page-1", groups[0].Results[1].URL)
	assert.Equal(t, "/page-2", groups[0].Results[2].URL)
}

func TestGroupDedupByURL(t *testing.T) {
	ranked := []Result{
		{URL: "/orders", Type: TypePage, Title: "Orders"},
		{URL: "/orders", Type: TypePage, Title: "Orders Again"},
		{URL: "/products", Type: TypePage, Title: "Products"},
	}

	groups := GroupResults(ranked)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Results, 2)
	assert.Equal(t, "Orders", groups[0].Results[0].Title)
}

func TestGroupDedupIsPerType(t *testing.T) {
	ranked := []Result{
		{URL: "/orders", Type: TypePage, Title: "Orders"},
		{URL: "/orders", Type: TypeRecentPage, Title: "Orders"},
	}

	groups := GroupResults(ranked)
	assert.Len(t, groups, 2)
}

func TestGroupOverviewPromotion(t *testing.T) {
	overview := resultWithParents("Orders Overview", "/orders", TypePage, "home", "overview")
	specific := resultWithParents("Orders", "/orders", TypePage, "home", "orders-menu")
	ranked := []Result{overview, specific}

	groups := GroupResults(ranked)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Results, 1)
	assert.Equal(t, "Orders", groups[0].Results[0].Title)
}

func TestGroupOverviewKeptWithoutTwin(t *testing.T) {
	overview := resultWithParents("Orders Overview", "/orders", TypePage, "overview")
	groups := GroupResults([]Result{overview})

	require.Len(t, groups, 1)
	require.Len(t, groups[0].Results, 1)
	assert.Equal(t, "Orders Overview", groups[0].Results[0].Title)
}

func TestGroupOrdering(t *testing.T) {
	ranked := []Result{
		{URL: "/recent", Type: TypeRecentPage, Title: "Recent"},
		{URL: "https://help/1", Type: TypeZendesk, Title: "Help"},
		{URL: "/go/me?next=%2Fadmin", Type: TypeAdminPage, Title: "Admin"},
		{URL: "/orders", Type: TypePage, Title: "Orders"},
		{URL: "/go/m1", Type: TypeMerchant, Title: "Acme"},
		{URL: "/go/m2", Type: TypeRecentLogin, Title: "Beta"},
		{URL: "/frequent", Type: TypeFrequentPage, Title: "Frequent"},
	}

	groups := GroupResults(ranked)
	var order []ResultType
	for _, g := range groups {
		order = append(order, g.Type)
	}
	assert.Equal(t, []ResultType{
		TypePage, TypeMerchant,
		TypeAdminPage, TypeZendesk, TypeRecentLogin, TypeRecentPage, TypeFrequentPage,
	}, order)
}

func TestGroupUnknownTypeSortsLast(t *testing.T) {
	ranked := []Result{
		{URL: "/x", Type: ResultType("experimental"), Title: "X"},
		{URL: "/orders", Type: TypePage, Title: "Orders"},
	}

	groups := GroupResults(ranked)
	require.Len(t, groups, 2)
	assert.Equal(t, TypePage, groups[0].Type)
	assert.Equal(t, ResultType("experimental"), groups[1].Type)
	assert.Equal(t, "experimental", groups[1].Title)
}

func TestGroupTitlesApplied(t *testing.T) {
	groups := GroupResults([]Result{{URL: "/orders", Type: TypePage, Title: "Orders"}})
	require.Len(t, groups, 1)
	assert.Equal(t, "Pages", groups[0].Title)
}

// End-to-end: a node and its overview twin share a URL; searching must
// yield one page group containing only the specific page.
func TestEndToEndOverviewScenario(t *testing.T) {
	hits := int64(100)
	recent := int64(100)
	zero := int64(0)
	user := &nav.NavigationNode{
		NodeID: "root", Label: "Home",
		Children: []*nav.NavigationNode{
			{NodeID: "orders", Label: "Orders", URL: "/orders", TotalHits: &hits, MostRecentHit: &recent},
			{NodeID: "overview", Label: "Overview", Children: []*nav.NavigationNode{
				{NodeID: "orders-overview", Label: "Orders Overview", URL: "/orders", TotalHits: &zero},
			}},
		},
	}

	engine := NewEngine(EngineConfig{})
	defer engine.Close()
	require.NoError(t, engine.SetGraphs(user, nil))

	results := engine.Aggregator().Search(context.Background(), "orders")
	groups := GroupResults(results)

	require.Len(t, groups, 1)
	assert.Equal(t, TypePage, groups[0].Type)
	require.Len(t, groups[0].Results, 1)
	assert.Equal(t, "Orders", groups[0].Results[0].Title)
}
