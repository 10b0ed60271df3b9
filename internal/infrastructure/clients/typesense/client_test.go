package typesense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTherapistSchema(t *testing.T) {
	schema := TherapistSchema()

	assert.Equal(t, TherapistsCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "updated_at", *schema.DefaultSortingField)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "string", fields["name"])
	assert.Equal(t, "string[]", fields["issues"])
	assert.Equal(t, "int64", fields["updated_at"])
}
