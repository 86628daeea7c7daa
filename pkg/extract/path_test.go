package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

const usersBody = `{
  "data": {
    "getAllUsers": [
      {"id": 20, "firstName": "Wilbur", "address": {"city": "Oslo"}},
      {"id": 21, "firstName": "Oriana", "tags": ["a", "b"]},
      {"id": 22, "firstName": "Brade"},
      {"id": 23, "firstName": "Sebastian", "tags": ["c"]}
    ],
    "createUser": {"id": "41", "firstName": "Ann"}
  }
}`

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestPath(t *testing.T) {
	doc := decode(t, usersBody)

	tests := []struct {
		name   string
		path   string
		want   interface{}
		wantOK bool
	}{
		{"nested field", "data.createUser.firstName", "Ann", true},
		{"index", "data.getAllUsers[1].firstName", "Oriana", true},
		{"negative index", "data.getAllUsers[-1].id", float64(23), true},
		{"wildcard", "data.getAllUsers[*].id", []interface{}{float64(20), float64(21), float64(22), float64(23)}, true},
		{"implicit spread", "data.getAllUsers.firstName", []interface{}{"Wilbur", "Oriana", "Brade", "Sebastian"}, true},
		{"spread skips elements without the field", "data.getAllUsers.address.city", []interface{}{"Oslo"}, true},
		{"spread flattens nested lists", "data.getAllUsers.tags", []interface{}{"a", "b", "c"}, true},
		{"missing field", "data.deleteUser.id", nil, false},
		{"index out of range", "data.getAllUsers[9]", nil, false},
		{"index on object", "data.createUser[0]", nil, false},
		{"field on scalar", "data.createUser.id.value", nil, false},
		{"malformed path", "data.getAllUsers[x]", nil, false},
		{"empty path", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Path(doc, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath_NullValueIsPresent(t *testing.T) {
	doc := decode(t, `{"data": {"deleteUser": null}}`)

	got, ok := Path(doc, "data.deleteUser")
	assert.True(t, ok)
	assert.Nil(t, got)
}

func TestFromJSON(t *testing.T) {
	got, ok, err := FromJSON([]byte(usersBody), "data.createUser.id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "41", got)

	_, _, err = FromJSON([]byte("<html>"), "data")
	assert.True(t, errors.Is(err, errors.ErrExtraction))
}

func TestPathBuilder(t *testing.T) {
	p := NewPathBuilder().Field("data").Field("getAllUsers").Index(0).Field("firstName").Build()
	assert.Equal(t, "data.getAllUsers[0].firstName", p)

	p = NewPathBuilder().Field("items").Wildcard().Field("id").Build()
	assert.Equal(t, "items[*].id", p)
}
