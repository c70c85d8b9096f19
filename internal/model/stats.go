package model

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"DomainQL/internal/logger"
)

// limitSources are probed in order; the first readable, bounded value wins.
var limitSources = []struct {
	path  string
	label string
	read  func(string) (uint64, bool)
}{
	{"/sys/fs/cgroup/memory.max", "cgroup v2 memory.max", parseLimitValue},
	{"/sys/fs/cgroup/memory/memory.limit_in_bytes", "cgroup v1 memory.limit_in_bytes", parseLimitValue},
	{"/proc/meminfo", "proc meminfo MemTotal", parseMemTotal},
}

// logStats reports the size of the linked registry next to the process heap,
// so a schema that blows up per-role views shows in the startup log.
func (r *Registry) logStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	views, fields := 0, 0
	for _, roles := range r.views {
		views += len(roles)
	}
	for _, t := range r.tables {
		fields += len(t.Root.Names())
	}

	limit, source := detectMemoryLimit()
	logger.Info("registry_ready", map[string]any{
		"domains":      len(r.names),
		"views":        views,
		"fields":       fields,
		"heap_alloc":   formatBytes(ms.HeapAlloc),
		"memory_limit": formatBytes(limit),
		"limit_source": source,
	})
}

func detectMemoryLimit() (uint64, string) {
	for _, src := range limitSources {
		data, err := os.ReadFile(src.path)
		if err != nil {
			continue
		}
		if v, ok := src.read(string(data)); ok {
			return v, src.label
		}
	}
	return 0, "unknown"
}

// parseLimitValue reads a cgroup limit; "max" means unbounded.
func parseLimitValue(raw string) (uint64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "max" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

func parseMemTotal(raw string) (uint64, bool) {
	for _, ln := range strings.Split(raw, "\n") {
		rest, ok := strings.CutPrefix(ln, "MemTotal:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		return kb * 1024, err == nil
	}
	return 0, false
}

func formatBytes(v uint64) string {
	units := []string{"KB", "MB", "GB"}
	if v < 1024 {
		return strconv.FormatUint(v, 10) + " B"
	}
	f, unit := float64(v)/1024, units[0]
	for _, u := range units[1:] {
		if f < 1024 {
			break
		}
		f, unit = f/1024, u
	}
	return strconv.FormatFloat(f, 'f', 2, 64) + " " + unit
}
