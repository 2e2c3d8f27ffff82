package urlstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringParamRoundTrip(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	p := NewParam(nav, "q", "", StringCodec())

	require.NoError(t, p.Set("refund"))
	assert.Equal(t, "refund", p.Get())
	assert.Equal(t, "refund", nav.QueryParams()["q"])
}

func TestAbsentKeyReadsDefault(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	limit := NewParam(nav, "limit", "10", IntCodec())

	assert.Equal(t, 10, limit.Get())
}

func TestSettingDefaultRemovesKey(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	limit := NewParam(nav, "limit", "10", IntCodec())

	require.NoError(t, limit.Set(25))
	assert.Equal(t, "25", nav.QueryParams()["limit"])

	require.NoError(t, limit.Set(10))
	_, present := nav.QueryParams()["limit"]
	assert.False(t, present, "default value should collapse out of the URL")
	assert.Equal(t, 10, limit.Get())
}

func TestEmptyValueRemovesKey(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	q := NewParam(nav, "q", "", StringCodec())

	require.NoError(t, q.Set("shoes"))
	require.NoError(t, q.Set(""))

	assert.Empty(t, nav.QueryParams())
}

func TestIntZeroRoundTripsAgainstNonZeroDefault(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	limit := NewParam(nav, "limit", "10", IntCodec())

	require.NoError(t, limit.Set(0))
	assert.Equal(t, "0", nav.QueryParams()["limit"], "zero is a value, not absence")
	assert.Equal(t, 0, limit.Get())
}

func TestIntCodecSerializesZero(t *testing.T) {
	c := IntCodec()
	assert.Equal(t, "0", c.Serialize(0))
}

func TestIntCodecLenientParse(t *testing.T) {
	c := IntCodec()

	assert.Equal(t, 42, c.Deserialize("42"))
	assert.Equal(t, 0, c.Deserialize("forty-two"))
	assert.Equal(t, 0, c.Deserialize(""))
	assert.Equal(t, -3, c.Deserialize("-3"))
}

func TestBoolCodecTriState(t *testing.T) {
	c := BoolCodec()

	require.NotNil(t, c.Deserialize("true"))
	assert.True(t, *c.Deserialize("true"))
	require.NotNil(t, c.Deserialize("false"))
	assert.False(t, *c.Deserialize("false"))
	assert.Nil(t, c.Deserialize(""))
	assert.Nil(t, c.Deserialize("yes"))

	assert.Equal(t, "", c.Serialize(nil))
}

func TestIntSliceCodecDropsBadTokens(t *testing.T) {
	c := IntSliceCodec()

	assert.Equal(t, []int{1, 2, 3}, c.Deserialize("1,2,3"))
	assert.Equal(t, []int{1, 3}, c.Deserialize("1,oops,3"))
	assert.Nil(t, c.Deserialize(""))
	assert.Equal(t, "4,5", c.Serialize([]int{4, 5}))
}

func TestStringSliceCodecSkipsEmptyTokens(t *testing.T) {
	c := StringSliceCodec()

	assert.Equal(t, []string{"a", "b"}, c.Deserialize(",a,,b,"))
	assert.Nil(t, c.Deserialize(""))
}

func TestStringSetCodecCanonicalOrder(t *testing.T) {
	c := StringSetCodec()

	set := map[string]struct{}{"zebra": {}, "apple": {}, "mango": {}}
	assert.Equal(t, "apple,mango,zebra", c.Serialize(set))

	parsed := c.Deserialize("b,a,b")
	assert.Len(t, parsed, 2)
	assert.Contains(t, parsed, "a")
	assert.Contains(t, parsed, "b")
}

func TestDateCodec(t *testing.T) {
	c := DateCodec("")

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", c.Serialize(day))
	assert.Equal(t, day, c.Deserialize("2024-03-15"))
	assert.True(t, c.Deserialize("not-a-date").IsZero())
	assert.Equal(t, "", c.Serialize(time.Time{}))
}

func TestStringEnumCodecClampsUnknown(t *testing.T) {
	c := StringEnumCodec("open", "closed", "cancelled")

	assert.Equal(t, "open", c.Deserialize("open"))
	assert.Equal(t, "", c.Deserialize("exploded"))
	assert.Equal(t, "", c.Serialize("exploded"))
}

func TestBatchCoalescesIntoSinglePush(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	status := NewParam(nav, "status", "", StringEnumCodec("open", "closed"))
	page := NewParam(nav, "page", "1", IntCodec())
	q := NewParam(nav, "q", "", StringCodec())

	require.NoError(t, q.Set("boots"))
	before := nav.Pushes()

	batch := NewBatch(nav)
	SetParam(batch, status, "open")
	SetParam(batch, page, 3)
	require.NoError(t, batch.Apply())

	assert.Equal(t, before+1, nav.Pushes())
	params := nav.QueryParams()
	assert.Equal(t, "open", params["status"])
	assert.Equal(t, "3", params["page"])
	assert.Equal(t, "boots", params["q"], "untouched keys survive the batch")
}

func TestBatchRemovalLeavesBarePath(t *testing.T) {
	nav := NewMemoryNavigator("/orders")
	q := NewParam(nav, "q", "", StringCodec())
	page := NewParam(nav, "page", "1", IntCodec())

	require.NoError(t, q.Set("boots"))

	batch := NewBatch(nav)
	SetParam(batch, q, "")
	SetParam(batch, page, 1)
	require.NoError(t, batch.Apply())

	assert.Empty(t, nav.QueryParams())
	assert.Equal(t, "/orders", nav.CurrentPath())
}
