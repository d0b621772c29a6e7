package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquals(t *testing.T) {
	assert.Equal(t, `{user_id}="rec123"`, Equals("user_id", "rec123").Render())
}

func TestEqualsFold(t *testing.T) {
	assert.Equal(
		t,
		`LOWER({email})=LOWER("Noora@Gmail.com")`,
		EqualsFold("email", "Noora@Gmail.com").Render(),
	)
}

func TestAnd(t *testing.T) {
	t.Run("two expressions", func(t *testing.T) {
		f := And(Equals("user_id", "recU"), Equals("movie_id", "recM"))
		assert.Equal(t, `AND({user_id}="recU",{movie_id}="recM")`, f.Render())
	})
	t.Run("single expression is not wrapped", func(t *testing.T) {
		f := And(Equals("user_id", "recU"))
		assert.Equal(t, `{user_id}="recU"`, f.Render())
	})
}

func TestValueEscaping(t *testing.T) {
	f := Equals("name", `say "hi" \ bye`)
	assert.Equal(t, `{name}="say \"hi\" \\ bye"`, f.Render())
}
