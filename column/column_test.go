package column

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

var header = []string{"Name", "Wage", "Status", "name", "3"}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected int
	}{
		{name: "ByName", token: "Wage", expected: 1},
		{name: "CaseSensitive", token: "name", expected: 3},
		{name: "ByIndex", token: "0", expected: 0},
		{name: "LastIndex", token: "4", expected: 4},
		{name: "IndexWinsOverNumericName", token: "3", expected: 3},
		{name: "LeadingZeroIndex", token: "02", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Resolve(tt.token, header)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, idx)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		header  []string
		message string
	}{
		{name: "IndexOutOfRange", token: "5", header: header, message: "index 5 is out of range"},
		{name: "UnknownName", token: "Age", header: header, message: "no column named 'Age'"},
		{name: "WrongCase", token: "WAGE", header: header, message: "no column named 'WAGE'"},
		{name: "Ambiguous", token: "id", header: []string{"id", "x", "id"}, message: "matches columns 0 and 2"},
		{name: "NegativeIsAName", token: "-1", header: header, message: "no column named '-1'"},
		{name: "EmptyHeader", token: "0", header: nil, message: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Resolve(tt.token, tt.header)
			assert.IsError(t, err, ErrColumn)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, -1, idx)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	for _, token := range []string{"Wage", "name", "0", "4"} {
		first, err := Resolve(token, header)
		assert.NoError(t, err)
		second, err := Resolve(token, header)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestBindingResolvesOnce(t *testing.T) {
	b := NewBinding("Status")
	assert.Equal(t, -1, b.Index)
	assert.False(t, b.Bound())

	idx, err := b.Bind(header)
	assert.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.True(t, b.Bound())
	assert.Equal(t, "Status", b.Name(header))

	// A different header later in the stream does not move the binding.
	idx, err = b.Bind([]string{"Status", "x"})
	assert.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestBindingKeepsFailure(t *testing.T) {
	b := NewBinding("missing")
	_, err := b.Bind(header)
	assert.IsError(t, err, ErrColumn)

	_, err = b.Bind([]string{"missing"})
	assert.IsError(t, err, ErrColumn)
	assert.Equal(t, "missing", b.Name(header))
}

func TestBindAll(t *testing.T) {
	bindings := []*Binding{NewBinding("Name"), NewBinding("2")}
	assert.NoError(t, BindAll(bindings, header))
	assert.Equal(t, 0, bindings[0].Index)
	assert.Equal(t, 2, bindings[1].Index)
}

func TestBindAllRejectsDuplicates(t *testing.T) {
	err := BindAll([]*Binding{NewBinding("Wage"), NewBinding("1")}, header)
	assert.IsError(t, err, ErrColumn)
	assert.Contains(t, err.Error(), "both select column 1")
}

func TestGeneratedNames(t *testing.T) {
	names := GeneratedNames(54)
	assert.Equal(t, "a", names[0])
	assert.Equal(t, "z", names[25])
	assert.Equal(t, "aa", names[26])
	assert.Equal(t, "az", names[51])
	assert.Equal(t, "ba", names[52])
	assert.Equal(t, "bb", names[53])
	assert.Equal(t, 0, len(GeneratedNames(0)))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		header   []string
		expected []string
		ok       bool
	}{
		{name: "Indices", token: "0,2", header: header, expected: []string{"0", "2"}, ok: true},
		{name: "NamesWithSpaces", token: "Name, Status", header: header, expected: []string{"Name", "Status"}, ok: true},
		{name: "SingleToken", token: "Wage", header: header},
		{name: "NameContainsComma", token: "Last, First", header: []string{"Last, First", "Last", "First"}},
		{name: "UnknownElement", token: "Name,Missing", header: header},
		{name: "EmptyElement", token: "Name,", header: header},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, ok := SplitList(tt.token, tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, parts)
		})
	}
}
