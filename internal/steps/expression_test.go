package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		text     string
		match    bool
		wantArgs []interface{}
	}{
		{name: "literal", expr: "we clear all bookmarks", text: "we clear all bookmarks", match: true, wantArgs: []interface{}{}},
		{name: "literal is anchored", expr: "we clear all bookmarks", text: "we clear all bookmarks twice", match: false},
		{name: "named int", expr: "the agenda has {count:Int} proposals", text: "the agenda has 12 proposals", match: true, wantArgs: []interface{}{12}},
		{name: "zero", expr: "the agenda has {count:Int} proposals", text: "the agenda has 0 proposals", match: true, wantArgs: []interface{}{0}},
		{name: "negative int", expr: "offset {int}", text: "offset -3", match: true, wantArgs: []interface{}{-3}},
		{name: "int rejects words", expr: "the agenda has {count:Int} proposals", text: "the agenda has many proposals", match: false},
		{name: "float", expr: "rating {float}", text: "rating 4.5", match: true, wantArgs: []interface{}{4.5}},
		{name: "string", expr: "the proposal {string} is bookmarked", text: `the proposal "Go at scale" is bookmarked`, match: true, wantArgs: []interface{}{"Go at scale"}},
		{name: "single-quoted string", expr: "say {string}", text: "say 'hi'", match: true, wantArgs: []interface{}{"hi"}},
		{name: "empty string", expr: "say {string}", text: `say ""`, match: true, wantArgs: []interface{}{""}},
		{name: "strings in both quote styles", expr: "move {string} before {string}", text: `move 'Keynote' before "Lunch"`, match: true, wantArgs: []interface{}{"Keynote", "Lunch"}},
		{name: "string quotes must pair", expr: "say {string}", text: `say "hi'`, match: false},
		{name: "word", expr: "the {word} track", text: "the backend track", match: true, wantArgs: []interface{}{"backend"}},
		{name: "anonymous", expr: "note {}", text: "note anything at all", match: true, wantArgs: []interface{}{"anything at all"}},
		{name: "optional text singular", expr: "the agenda has {int} proposal(s)", text: "the agenda has 1 proposal", match: true, wantArgs: []interface{}{1}},
		{name: "optional text plural", expr: "the agenda has {int} proposal(s)", text: "the agenda has 2 proposals", match: true, wantArgs: []interface{}{2}},
		{name: "regexp metacharacters are literal", expr: "a.b*c", text: "aXbbc", match: false},
		{name: "escaped brace", expr: `literal \{int\}`, text: "literal {int}", match: true, wantArgs: []interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.expr)
			require.NoError(t, err)

			args, ok, err := expr.Match(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{
		"the agenda has {count:Integer} proposals",
		"unclosed {int",
		"stray } brace",
		"unclosed (optional",
		"nested ({int})",
		`trailing \`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Compile(expr)
			assert.Error(t, err)
		})
	}
}

func TestExpressionAccessors(t *testing.T) {
	expr := MustCompile(PhraseProposalCount)
	assert.Equal(t, PhraseProposalCount, expr.Source())
	assert.Equal(t, `^the agenda has (-?\d+) proposals$`, expr.Regexp().String())
	require.Len(t, expr.Parameters(), 1)
	assert.Equal(t, "count", expr.Parameters()[0].Name)
	assert.Equal(t, "int", expr.Parameters()[0].Type.Name)

	assert.Panics(t, func() { MustCompile("{nope}") })
}

func TestMatchConversionError(t *testing.T) {
	expr := MustCompile("the agenda has {int} proposals")
	_, ok, err := expr.Match("the agenda has 99999999999999999999999 proposals")
	assert.True(t, ok)
	assert.Error(t, err, "out of range integers are reported, not truncated")
}
