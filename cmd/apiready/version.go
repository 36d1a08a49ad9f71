package main

import (
	"runtime/debug"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

// Version returns the version string.
//
// A binary installed with `go install ...@version` reports the module
// version. Development builds report "devel-<version>+<revision>" when VCS
// information is available.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return "devel-" + version + "+" + s.Value[:7]
		}
	}
	return "devel-" + version
}
