package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	for _, name := range []string{"accounts", "new_widget", "dataverse_snapshot", "__rownum", "a.b", "user@org"} {
		assert.NoError(t, validateIdentifier(name), "name: %s", name)
	}
	for _, name := range []string{"", "drop table`", "a b", "семь", "x'y"} {
		assert.Error(t, validateIdentifier(name), "name: %s", name)
	}
}

func TestCreateTableSQL(t *testing.T) {
	sql := createTableSQL("snapshot", []string{"__rownum", "name"})
	assert.Equal(t, "CREATE TABLE `snapshot` (`__rownum` TEXT, `name` TEXT)", sql)
}
