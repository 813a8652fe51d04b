package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"go.uber.org/zap"
)

// DepcheckProjectConfig is the optional per-project depcheck config merged
// over the default.
const DepcheckProjectConfig = "depcheck.json"

// DepcheckResultPath is where unused dependencies are recorded, relative to
// the origin directory.
var DepcheckResultPath = filepath.Join("tmp", "depcheck.result.json")

// MergeOriginConfig shallow-merges name, read from the origin directory, over
// the loaded config object. A missing file leaves the config as is.
func MergeOriginConfig(name string) Executor {
	return pipeline.New("mergeOriginConfig", func(ctx context.Context, s State) (State, error) {
		p := filepath.Join(s.OriginDir, name)
		overrides, err := configobj.Load(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return s, nil
			}
			return s, fmt.Errorf("error reading depcheck config file %s: %w", name, err)
		}
		cfg := s.Config.Clone()
		if cfg == nil {
			cfg = configobj.Object{}
		}
		for k, v := range overrides {
			cfg[k] = v
		}
		s.Config = cfg
		return s, nil
	})
}

// DepcheckReport is the subset of depcheck's --json output acted upon.
type DepcheckReport struct {
	Dependencies    []string            `json:"dependencies"`
	DevDependencies []string            `json:"devDependencies"`
	Missing         map[string][]string `json:"missing,omitempty"`
	Using           map[string][]string `json:"using,omitempty"`
	InvalidFiles    map[string]any      `json:"invalidFiles,omitempty"`
	InvalidDirs     map[string]any      `json:"invalidDirs,omitempty"`
}

// Unused reports whether any dependency is left unused.
func (r DepcheckReport) Unused() bool {
	return len(r.Dependencies) > 0 || len(r.DevDependencies) > 0
}

// UnusedDevDependencies filters @types/<lib> entries whose <lib> is in use;
// depcheck cannot see that type packages are consumed through their library.
func UnusedDevDependencies(unused []string, using map[string][]string) []string {
	var plain, types []string
	for _, dep := range unused {
		if lib, ok := strings.CutPrefix(dep, "@types/"); ok && lib != "" {
			types = append(types, lib)
			continue
		}
		plain = append(plain, dep)
	}
	out := plain
	for _, lib := range types {
		if _, used := using[lib]; used {
			continue
		}
		out = append(out, "@types/"+lib)
	}
	return out
}

// ReportDepcheck interprets captured depcheck output. Unused dependencies are
// written to tmp/depcheck.result.json under the origin and fail the run;
// otherwise a stale result file is removed.
func ReportDepcheck(inv *Invocation) Executor {
	return pipeline.New("reportDepcheck", func(ctx context.Context, s State) (State, error) {
		var report DepcheckReport
		if err := json.Unmarshal(s.Output, &report); err != nil {
			return s, fmt.Errorf("parse depcheck output: %w", err)
		}
		report.DevDependencies = UnusedDevDependencies(report.DevDependencies, report.Using)

		resultPath := filepath.Join(s.OriginDir, DepcheckResultPath)
		out := inv.stdout()
		if !report.Unused() {
			fmt.Fprintln(out, "No unused dependencies found!")
			if err := os.Remove(resultPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return s, err
			}
			return s, nil
		}

		if report.Dependencies == nil {
			report.Dependencies = []string{}
		}
		if report.DevDependencies == nil {
			report.DevDependencies = []string{}
		}
		sort.Strings(report.Dependencies)
		sort.Strings(report.DevDependencies)
		if err := configobj.Write(resultPath, report); err != nil {
			return s, err
		}
		fmt.Fprintln(out, "Found unused dependencies:")
		fmt.Fprintf(out, "\n dependencies %s\n", formatList(report.Dependencies))
		fmt.Fprintf(out, "\n devDependencies %s\n", formatList(report.DevDependencies))
		inv.logger().Debug("wrote depcheck result", zap.String("path", resultPath))
		return s, fmt.Errorf("%w (see %s)", ErrUnusedDependencies, resultPath)
	})
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[ " + strings.Join(quoted, ", ") + " ]"
}
