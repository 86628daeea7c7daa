package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

func TestFind(t *testing.T) {
	users, ok := Path(decode(t, usersBody), "data.getAllUsers")
	require.True(t, ok)

	got, ok, err := Find(users, "it.id == 21")
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := Path(got, "firstName")
	assert.Equal(t, "Oriana", name)

	_, ok, err = Find(users, "it.id == 99")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFind_MissingFieldDoesNotMatch(t *testing.T) {
	users, _ := Path(decode(t, usersBody), "data.getAllUsers")

	got, ok, err := Find(users, `it.address.city == "Oslo"`)
	require.NoError(t, err)
	require.True(t, ok)
	id, _ := Int(got.(map[string]interface{})["id"])
	assert.Equal(t, 20, id)
}

func TestFindAll(t *testing.T) {
	users, _ := Path(decode(t, usersBody), "data.getAllUsers")

	got, err := FindAll(users, "it.id > 21")
	require.NoError(t, err)
	require.Len(t, got, 2)

	names, ok := Strings([]interface{}{got[0].(map[string]interface{})["firstName"], got[1].(map[string]interface{})["firstName"]})
	require.True(t, ok)
	assert.Equal(t, []string{"Brade", "Sebastian"}, names)
}

func TestFind_NotAList(t *testing.T) {
	_, ok, err := Find(map[string]interface{}{"id": 1.0}, "it.id == 1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFind_InvalidExpression(t *testing.T) {
	_, _, err := Find([]interface{}{}, "it.id ==")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtraction))
}

func TestConversions(t *testing.T) {
	n, ok := Int(float64(21))
	assert.True(t, ok)
	assert.Equal(t, 21, n)

	n, ok = Int("42")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = Int(2.5)
	assert.False(t, ok)

	s, ok := String(float64(7))
	assert.True(t, ok)
	assert.Equal(t, "7", s)

	_, ok = String(map[string]interface{}{})
	assert.False(t, ok)

	ss, ok := Strings("solo")
	assert.True(t, ok)
	assert.Equal(t, []string{"solo"}, ss)
}
