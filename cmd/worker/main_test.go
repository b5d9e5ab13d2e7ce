package main

import (
	"testing"

	"github.com/tripdesk/tripdesk/internal/app"
	tdtesting "github.com/tripdesk/tripdesk/testing"
)

func TestMain(m *testing.M) {
	tdtesting.TestMain(m)
}

func TestMainReturnsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}
