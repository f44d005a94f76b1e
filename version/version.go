// Package version reports the freicoind release.
package version

import (
	"fmt"
	"strings"
	"sync"
)

// buildCharacters are the characters allowed in appBuild.
const buildCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild can be set at link time with
// '-ldflags "-X github.com/freicoin/freicoind/version.appBuild=foo"'.
var appBuild string

var (
	versionOnce sync.Once
	version     string
)

// Version returns the semantic version, followed by the build metadata when
// appBuild is set and well formed.
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if isValidBuild(appBuild) {
			version += "+" + appBuild
		}
	})
	return version
}

func isValidBuild(build string) bool {
	if build == "" {
		return false
	}
	return strings.Trim(build, buildCharacters) == ""
}
