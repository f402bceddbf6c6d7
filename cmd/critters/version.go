package main

import "fmt"

// These constants define the application version and follow the semantic
// versioning 2.0.0 spec (http://semver.org/).
const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0
)

// appBuild may be overridden at build time with
// '-ldflags "-X main.appBuild=foo"'.
var appBuild = "dev"

// version returns the application version as a properly formed string.
func version() string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appBuild != "" {
		v = fmt.Sprintf("%s+%s", v, appBuild)
	}
	return v
}
