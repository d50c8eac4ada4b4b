package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var update = flag.Bool("update", false, "update script files")

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"vcgate": run,
	}))
}

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:           "testdata",
		UpdateScripts: *update,
		Setup: func(e *testscript.Env) error {
			data := filepath.Join(e.WorkDir, "data")
			e.Setenv("VCGATE_DATA_PATH", data)
			e.Setenv("VCGATE_LOG_LEVEL", "error")
			e.Setenv("VCGATE_HTTP_ENABLED", "false")
			e.Setenv("VCGATE_STATS_ENABLED", "false")
			return nil
		},
	})
}
