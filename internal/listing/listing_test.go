package listing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

type parcel struct {
	ID    int
	Owner string
	City  string
}

var parcels = Schema[parcel]{
	Sorts: map[string]Compare[parcel]{
		"id":    By(func(p parcel) int { return p.ID }),
		"owner": By(func(p parcel) string { return p.Owner }),
		"city":  By(func(p parcel) string { return p.City }),
	},
	Filters: map[string]Field[parcel]{
		"owner": func(p parcel) string { return p.Owner },
		"city":  func(p parcel) string { return p.City },
	},
}

func sample() []parcel {
	return []parcel{
		{ID: 3, Owner: "carol", City: "Oslo"},
		{ID: 1, Owner: "alice", City: "Bergen"},
		{ID: 4, Owner: "dave", City: "Oslo"},
		{ID: 2, Owner: "bob", City: "Bergen"},
		{ID: 5, Owner: "alice", City: "Oslo"},
	}
}

func ids(items []parcel) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestOrderIsStableAndReversible(t *testing.T) {
	asc, err := parcels.Order(sample(), "city", Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(asc))

	desc, err := parcels.Order(sample(), "city", Descending)
	require.NoError(t, err)
	// Equal keys keep their input order in both directions.
	assert.Equal(t, []int{3, 4, 5, 1, 2}, ids(desc))

	byID, err := parcels.Order(sample(), "id", Descending)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, ids(byID))
}

func TestNoSortKeepsInputOrder(t *testing.T) {
	items := sample()
	out, err := parcels.Order(items, "owner", NoSort)
	require.NoError(t, err)
	assert.Equal(t, ids(items), ids(out))

	out, err = parcels.Order(items, "", Ascending)
	require.NoError(t, err)
	assert.Equal(t, ids(items), ids(out))
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	items := sample()
	_, err := parcels.Order(items, "id", Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 4, 2, 5}, ids(items))
}

func TestFilterMatchesEverySubstring(t *testing.T) {
	out, err := parcels.Filter(sample(), map[string]string{"owner": "ali", "city": "Os"})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, ids(out))

	out, err = parcels.Filter(sample(), map[string]string{"owner": ""})
	require.NoError(t, err)
	assert.Len(t, out, 5)

	out, err = parcels.Filter(sample(), map[string]string{"owner": "ALICE"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	p := Paginate(items, 3, 10)
	assert.Equal(t, []int{20, 21, 22}, p.Items)
	assert.Equal(t, 23, p.TotalCount)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPreviousPage)
	assert.False(t, p.HasNextPage)

	p = Paginate(items, 1, 10)
	assert.Len(t, p.Items, 10)
	assert.False(t, p.HasPreviousPage)
	assert.True(t, p.HasNextPage)

	p = Paginate(items, 9, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 23, p.TotalCount)

	p = Paginate([]int{}, 1, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
}

func TestPagesPartitionTheResult(t *testing.T) {
	for size := 1; size <= 6; size++ {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			var seen []int
			first := Paginate(ids(sample()), 1, size)
			for page := 1; page <= first.TotalPages; page++ {
				seen = append(seen, Paginate(ids(sample()), page, size).Items...)
			}
			assert.Equal(t, ids(sample()), seen)
		})
	}
}

func TestApplyRejectsUnknownParameters(t *testing.T) {
	_, err := parcels.Apply(sample(), Options{SortKey: "weight", Order: Ascending, Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidSortKey)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))

	_, err = parcels.Apply(sample(), Options{Filters: map[string]string{"weight": "1"}, Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = parcels.Apply(sample(), Options{Page: 1, PageSize: 0})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.NotErrorIs(t, err, ErrInvalidSortKey)
}

func TestApplyPipeline(t *testing.T) {
	p, err := parcels.Apply(sample(), Options{
		SortKey:  "id",
		Order:    Descending,
		Filters:  map[string]string{"city": "Oslo"},
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, ids(p.Items))
	assert.Equal(t, 3, p.TotalCount)
	assert.True(t, p.HasNextPage)
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, Ascending, ParseOrder("ASC"))
	assert.Equal(t, Descending, ParseOrder(" desc "))
	assert.Equal(t, NoSort, ParseOrder(""))
	assert.Equal(t, NoSort, ParseOrder("sideways"))
}

func TestMapKeepsMetadata(t *testing.T) {
	p := Map(Paginate(sample(), 2, 2), func(p parcel) string { return p.Owner })
	assert.Equal(t, []string{"dave", "bob"}, p.Items)
	assert.Equal(t, 5, p.TotalCount)
	assert.Equal(t, 2, p.PageIndex)
}
