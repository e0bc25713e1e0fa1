package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "", 5)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestSchemaDeclaresEmailUniqueness(t *testing.T) {
	require.Len(t, schema, 3)
	assert.Contains(t, schema[0], "UNIQUE (email)")
	assert.True(t, strings.Contains(schema[1], "REFERENCES users(id)"))
}
