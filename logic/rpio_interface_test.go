package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func swapRpioFns(openFn, closeFn func() error) func() {
	origOpen, origClose := rpioOpenFn, rpioCloseFn
	rpioOpenFn, rpioCloseFn = openFn, closeFn
	return func() {
		rpioOpenFn, rpioCloseFn = origOpen, origClose
		rpioRefs = 0
	}
}

func TestRpioRefcount(t *testing.T) {
	opens, closes := 0, 0
	restore := swapRpioFns(
		func() error { opens++; return nil },
		func() error { closes++; return nil },
	)
	defer restore()

	// three interfaces initialize against one shared register mapping
	assert.NoError(t, rpioOpen())
	assert.NoError(t, rpioOpen())
	assert.NoError(t, rpioOpen())
	assert.Equal(t, 1, opens, "registers should be mapped once")

	// the mapping must survive until the last user has deinitialized, so the
	// remaining Deinitialize register writes stay valid
	assert.NoError(t, rpioClose())
	assert.NoError(t, rpioClose())
	assert.Equal(t, 0, closes, "mapping must outlive the remaining users")
	assert.NoError(t, rpioClose())
	assert.Equal(t, 1, closes, "last close unmaps")

	// extra closes are no-ops
	assert.NoError(t, rpioClose())
	assert.Equal(t, 1, closes)
}

func TestRpioRefcount_OpenError(t *testing.T) {
	opens := 0
	restore := swapRpioFns(
		func() error { opens++; return fmt.Errorf("no gpiomem") },
		func() error { return nil },
	)
	defer restore()

	assert.Error(t, rpioOpen())
	// a failed open holds no reference; close has nothing to release
	assert.NoError(t, rpioClose())
	assert.Error(t, rpioOpen())
	assert.Equal(t, 2, opens, "each open attempt should retry the mapping")
}
