package dpkg

import (
	"strings"

	"github.com/pkgops/dpm/internal/deb"
)

// brokenPrefixes are the dpkg -l state columns for packages stuck
// between unpack and configure.
var brokenPrefixes = []string{"iU", "iF", "iH"}

// parseBrokenLines extracts partially installed packages from dpkg -l
// output.
func parseBrokenLines(out string) []deb.Package {
	var packages []deb.Package
	for _, line := range strings.Split(out, "\n") {
		if !hasBrokenPrefix(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		packages = append(packages, deb.Package{
			Name:    fields[1],
			Version: fields[2],
			Status:  deb.StatusBroken,
		})
	}
	return packages
}

func hasBrokenPrefix(line string) bool {
	for _, prefix := range brokenPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
