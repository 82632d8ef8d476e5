package testhelper

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCSV(t *testing.T) {
	got := CSV(t, `
		Name,Wage
		Ann,"1,000"
		`)
	assert.Equal(t, "Name,Wage\nAnn,\"1,000\"\n", got)
}

func TestCSVKeepsInnerTabs(t *testing.T) {
	got := CSV(t, "\n\ta\tb\n\tc\td\n")
	assert.Equal(t, "a\tb\nc\td\n", got)
}

func TestGetCaller(t *testing.T) {
	caller := GetCaller(t)
	assert.True(t, strings.HasPrefix(caller, "(helper_test.go:"), caller)
}
