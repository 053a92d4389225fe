package storeapi

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"

	"github.com/evercart/evercart/internal/domain"
)

// snowflake ids exceed 2^53, so the login payload must carry them as
// strings or the browser silently rounds them.
func TestIdentityViewKeepsIDPrecision(t *testing.T) {
	user := &domain.User{ID: 9007199254740993, Username: "kim", Email: "kim@example.com"}
	view := identityView(user)
	assert.Equal(t, "9007199254740993", view["id"])

	raw, err := jsoniter.Marshal(view)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"9007199254740993"`)
}
