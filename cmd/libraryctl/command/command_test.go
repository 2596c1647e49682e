package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookQty(t *testing.T) {
	id, qty, err := parseBookQty([]string{"12"}, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, 1, qty)

	_, qty, err = parseBookQty([]string{"12", "0"}, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, qty)

	_, _, err = parseBookQty([]string{"12", "0"}, 1)
	assert.Error(t, err)
	_, _, err = parseBookQty([]string{"x"}, 1)
	assert.Error(t, err)
	_, _, err = parseBookQty([]string{"-3"}, 1)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Dune", truncate(" Dune ", 10))
	assert.Equal(t, "Trăm năm…", truncate("Trăm năm cô đơn", 9))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"auth", "login"}, {"cart", "add"}, {"loans", "renew"}, {"admin", "confirm"}, {"admin", "mark-paid"}, {"admin", "run-overdue"},
	} {
		cmd, _, err := rootCmd.Find(path)
		assert.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
