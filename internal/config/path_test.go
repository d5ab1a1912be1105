package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FOODLENS_TEST_DIR", "/srv/food")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde only", in: "~", want: home},
		{name: "tilde prefix", in: "~/foods.db", want: filepath.Join(home, "foods.db")},
		{name: "env var", in: "$FOODLENS_TEST_DIR/foods.db", want: "/srv/food/foods.db"},
		{name: "absolute", in: "/tmp/foods.db", want: "/tmp/foods.db"},
		{name: "tilde not at start", in: "/a/~/b", want: "/a/~/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
