package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaf-lang/minidecaf/pkg/ast"
)

func TestLocatedError(t *testing.T) {
	err := Errorf(ast.Pos{Line: 3, Column: 7}, ErrUndeclared, "%s undeclared", "x")

	assert.Equal(t, "3:7: x undeclared", err.Error())
	assert.True(t, errors.Is(err, ErrUndeclared))
	assert.False(t, errors.Is(err, ErrRedefinition))
}

func TestTypeErrorUnwrapsToLocatedError(t *testing.T) {
	var err error = TypeErrorf(ast.Pos{Line: 1, Column: 2}, ErrNotLvalue, "lvalue expected")

	assert.Equal(t, "1:2: lvalue expected", err.Error())
	assert.True(t, errors.Is(err, ErrNotLvalue))

	var le *LocatedError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ast.Pos{Line: 1, Column: 2}, le.Pos)

	var te *TypeError
	assert.True(t, errors.As(err, &te))
}

func TestLocatedErrorIsNotTypeError(t *testing.T) {
	var err error = Errorf(ast.Pos{Line: 1, Column: 1}, ErrNotInLoop, "break is not in a loop")

	var te *TypeError
	assert.False(t, errors.As(err, &te))
}
