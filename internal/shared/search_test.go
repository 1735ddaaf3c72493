package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `admin`, EscapeLike("admin"))
	assert.Equal(t, `\%`, EscapeLike("%"))
	assert.Equal(t, `\_role\_`, EscapeLike("_role_"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
	assert.Equal(t, `100\% done`, EscapeLike("100% done"))
}
