package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/specnav/outline"
)

const specSource = `
describe('calculator', () => {
  describe('addition', function () {
    it('adds integers', () => {
      expect(add(1, 2)).toBe(3);
    });
    xit('handles overflow', () => {});
  });

  context('subtraction', () => {
    it.only('subtracts integers', () => {});
  });
});

fdescribe('parser', () => {
  specify('tokenizes', () => {});
});
`

func TestTreeSitterParserExtractsCallTree(t *testing.T) {
	p := &TreeSitterParser{}
	roots, err := p.Parse(context.Background(), specSource)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	calc := roots[0]
	assert.Equal(t, "describe", calc.Name)
	assert.Equal(t, "calculator", calc.Text)
	assert.False(t, calc.Leaf)
	require.Len(t, calc.Children, 2)

	addition := calc.Children[0]
	assert.Equal(t, "addition", addition.Text)
	require.Len(t, addition.Children, 2)
	assert.True(t, addition.Children[0].Leaf)
	assert.Equal(t, "adds integers", addition.Children[0].Text)
	assert.True(t, addition.Children[1].Pending, "xit marks pending")

	subtraction := calc.Children[1]
	assert.Equal(t, "context", subtraction.Name)
	require.Len(t, subtraction.Children, 1)
	assert.True(t, subtraction.Children[0].Focused, "it.only marks focused")

	focusedSuite := roots[1]
	assert.True(t, focusedSuite.Focused, "fdescribe marks focused")
	require.Len(t, focusedSuite.Children, 1)
	assert.Equal(t, "specify", focusedSuite.Children[0].Name)
}

func TestTreeSitterParserOffsetsNest(t *testing.T) {
	p := &TreeSitterParser{}
	roots, err := p.Parse(context.Background(), specSource)
	require.NoError(t, err)

	o := outline.Build(roots)
	for _, node := range o.Flat {
		assert.LessOrEqual(t, node.Start, node.End)
		if node.Parent != nil {
			assert.GreaterOrEqual(t, node.Start, node.Parent.Start)
			assert.LessOrEqual(t, node.End, node.Parent.End)
		}
	}
}

func TestTreeSitterParserRejectsPlainScripts(t *testing.T) {
	p := &TreeSitterParser{}
	_, err := p.Parse(context.Background(), `const x = 1; console.log(x);`)
	assert.True(t, errors.Is(err, ErrFrameworkNotDetected))
}
