package apt

import (
	"strings"

	"github.com/pkgops/dpm/internal/deb"
)

// parseDependencyNames extracts dependency names from apt-cache depends
// output. Virtual packages (angle brackets) are skipped, as are alternate
// branches, whose lines carry a pipe prefix instead of a plain Depends tag.
func parseDependencyNames(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Depends:") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, "Depends:"))
		name = stripVersionConstraint(name)
		if name == "" || strings.HasPrefix(name, "<") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// parseRemovedPackages extracts the packages an installation simulation
// would remove. The removal stanza is a header line followed by indented
// package names; the first unindented line ends it.
func parseRemovedPackages(out string) []string {
	const header = "The following packages will be REMOVED:"

	var removed []string
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if !strings.Contains(line, header) {
			continue
		}
		for _, cont := range lines[i+1:] {
			if cont == "" || !strings.HasPrefix(cont, " ") {
				break
			}
			removed = append(removed, strings.Fields(cont)...)
		}
		break
	}
	return removed
}

// parsePolicyVersions extracts the version table from apt-cache policy
// output. Version rows are indented less than their package-source rows,
// which is what tells them apart.
func parsePolicyVersions(out string) []string {
	var versions []string
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Version table:") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if leadingSpaces(line) >= 8 {
			// package source row, not a version row
			continue
		}
		fields := strings.Fields(trimmed)
		if fields[0] == "***" {
			if len(fields) > 1 {
				versions = appendUnique(versions, fields[1])
			}
			continue
		}
		versions = appendUnique(versions, fields[0])
	}
	return versions
}

// parseShowFields extracts the candidate version and short description
// from apt-cache show output. The first stanza wins.
func parseShowFields(out string) (version, description string) {
	for _, line := range strings.Split(out, "\n") {
		if version == "" && strings.HasPrefix(line, "Version:") {
			version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
		}
		if description == "" && strings.HasPrefix(line, "Description:") {
			description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		}
		if description == "" && strings.HasPrefix(line, "Description-en:") {
			description = strings.TrimSpace(strings.TrimPrefix(line, "Description-en:"))
		}
	}
	return version, description
}

// parseInstalledLines extracts installed packages from dpkg -l output.
func parseInstalledLines(out string) []deb.Package {
	var packages []deb.Package
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "ii") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		packages = append(packages, deb.Package{
			Name:    fields[1],
			Version: fields[2],
			Status:  deb.StatusInstalled,
		})
	}
	return packages
}

// parseUpgradableLines extracts packages from apt list --upgradable
// output. Each entry reads name/suite version arch [upgradable from: old].
func parseUpgradableLines(out string) []deb.Package {
	var packages []deb.Package
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "upgradable") {
			continue
		}
		name, rest, ok := strings.Cut(line, "/")
		if !ok || name == "" || strings.Contains(name, " ") {
			continue
		}
		version := ""
		if fields := strings.Fields(rest); len(fields) > 1 {
			version = fields[1]
		}
		packages = append(packages, deb.Package{
			Name:    name,
			Version: version,
			Status:  deb.StatusUpgradable,
		})
	}
	return packages
}

// stripVersionConstraint drops a trailing parenthesized version
// constraint from a dependency name.
func stripVersionConstraint(name string) string {
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// leadingSpaces counts the spaces at the start of line.
func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// appendUnique appends value unless already present.
func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
