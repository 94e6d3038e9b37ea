package util

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.True(t, a < b, "ULIDs from one process sort by creation")
	assert.True(t, IsULID(a))
	assert.False(t, IsULID("not-a-ulid"))
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, StringToNullString("").Valid)
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, StringToNullString("x"))
	assert.Equal(t, "", NullStringToString(sql.NullString{}))
	assert.Equal(t, "x", NullStringToString(sql.NullString{String: "x", Valid: true}))
}
