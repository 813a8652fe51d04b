// Package version reports build metadata embedded by the Go toolchain.
package version

import (
	"runtime/debug"
	"strings"
)

const devel = "(devel)"

// Info describes the running binary.
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
}

// Read collects build metadata. Untagged and dirty builds report "(devel)".
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: devel}
	}
	info := Info{Version: releaseVersion(bi.Main.Version), GoVersion: bi.GoVersion}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String is the short version shown by --version.
func String() string {
	return Read().Version
}

// Long appends the VCS revision when the build recorded one.
func (i Info) Long() string {
	if i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if i.Modified {
		rev += "-dirty"
	}
	return i.Version + " (" + rev + ")"
}

func releaseVersion(v string) string {
	if v == "" || v == devel || strings.Contains(v, "+dirty") || isPseudoVersion(v) {
		return devel
	}
	return v
}

// isPseudoVersion matches vX.Y.Z-yyyymmddhhmmss-abcdefabcdef and its
// pre-release variants.
func isPseudoVersion(v string) bool {
	v, _, _ = strings.Cut(v, "+")
	parts := strings.Split(v, "-")
	if len(parts) < 3 {
		return false
	}
	ts, hash := parts[len(parts)-2], parts[len(parts)-1]
	if i := strings.LastIndexByte(ts, '.'); i >= 0 {
		ts = ts[i+1:]
	}
	return len(ts) == 14 && strings.Trim(ts, "0123456789") == "" &&
		len(hash) >= 12 && strings.Trim(strings.ToLower(hash), "0123456789abcdef") == ""
}
