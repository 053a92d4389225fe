package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("hunter22")
	assert.NoError(t, err)
	assert.NotEqual(t, "hunter22", hashed)
	assert.True(t, CheckPassword(hashed, "hunter22"))
	assert.False(t, CheckPassword(hashed, "hunter23"))
}

func TestOrderNumberShape(t *testing.T) {
	n := OrderNumber()
	assert.True(t, strings.HasPrefix(n, "EV"))
	parts := strings.Split(n, "-")
	assert.Len(t, parts, 2)
	assert.Len(t, parts[0], 10) // EV + yyyymmdd
	assert.Len(t, parts[1], 6)

	assert.NotEqual(t, OrderNumber(), OrderNumber())
}

func TestInSlice(t *testing.T) {
	assert.True(t, InSlice("b", []string{"a", "b"}))
	assert.False(t, InSlice("c", []string{"a", "b"}))
	assert.True(t, InSlice64(2, []int64{1, 2}))
	assert.False(t, InSlice64(3, []int64{1, 2}))
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "fallback", IfEmptyStr("  ", "fallback"))
	assert.Equal(t, "value", IfEmptyStr("value", "fallback"))
}
