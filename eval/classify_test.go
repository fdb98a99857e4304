package eval

import (
	"testing"

	"github.com/pharo-llm/pharo-copilot/assert"
	"github.com/pharo-llm/pharo-copilot/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected Category
	}{
		{"smalltalk subclass", "Object subclass: #Point", CategoryClassDefinition},
		{"go struct", "type Point struct {", CategoryClassDefinition},
		{"go func", "func (p *Point) Norm() float64 {", CategoryMethodDefinition},
		{"python def", "def norm(self):", CategoryMethodDefinition},
		{"smalltalk return", "^ self x * self x", CategoryReturnStatement},
		{"go return", "return p.x * p.x", CategoryReturnStatement},
		{"smalltalk assignment", "x := 42.", CategoryAssignment},
		{"plain assignment", "total = total + 1", CategoryAssignment},
		{"smalltalk iteration", "points do: [:p | p show]", CategoryIteration},
		{"python for loop", "for item in points:", CategoryIteration},
		{"smalltalk conditional", "x > 0 ifTrue: [self grow]", CategoryConditional},
		{"go if", "if err != nil {", CategoryConditional},
		{"bare expression", "p norm", CategoryOther},
		{"empty", "", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.source), "category")
		})
	}
}

func TestClassifyFirstProbeWins(t *testing.T) {
	// A method body with a return still classifies as a method definition:
	// probe order, not line order, decides.
	source := "x := compute value.\nfunc run() {\n"
	assert.Equal(t, CategoryMethodDefinition, Classify(source), "method outranks assignment")
}

func TestClassifyComparisonIsNotAssignment(t *testing.T) {
	tests := []string{
		"a == b",
		"a != b",
		"a <= b",
		"a >= b",
	}
	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			assert.Equal(t, CategoryOther, Classify(source), "comparison not assignment")
		})
	}
}

func TestClassifyContextPrefersDefinition(t *testing.T) {
	ctx := &types.CompletionContext{
		Prefix:     "x := 1.",
		Definition: "norm\n\t^ self x * self x",
	}
	assert.Equal(t, CategoryReturnStatement, ClassifyContext(ctx), "definition probed first")
}

func TestClassifyContextFallsBackToPrefix(t *testing.T) {
	ctx := &types.CompletionContext{Prefix: "x := 1."}
	assert.Equal(t, CategoryAssignment, ClassifyContext(ctx), "prefix probed")
}

func TestClassifyContextNil(t *testing.T) {
	assert.Equal(t, CategoryOther, ClassifyContext(nil), "nil context")
}
