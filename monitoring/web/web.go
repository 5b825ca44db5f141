// Package web holds the monitor page served at the root of the monitoring
// server.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevEnv is the environment variable that makes the monitor read the page
// from the source tree instead of the binary.
const DevEnv = "RANDLOOP_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// Assets returns the file system the monitor page is served from.
func Assets() http.FileSystem {
	if devMode() {
		dir := sourceDist()
		log.Printf("monitor: serving page from %s", dir)

		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevEnv))
	return err == nil && on
}

// sourceDist is the dist directory next to this file.
func sourceDist() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("monitor: cannot locate the source tree")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}
