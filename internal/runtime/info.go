package runtime

import "os"

// HostInfo identifies the machine a pipeline is running on.
type HostInfo struct {
	ID   string
	Role string
}

// EngineInfo identifies the running engine build.
type EngineInfo struct {
	Version string
}

// Info is the runtime/host identity exposed to plugins via RunContext.Info.
type Info struct {
	Host   HostInfo
	Engine EngineInfo
}

// ResolveInfo derives a HostInfo from the host-supplied configuration blob
// using a fallback chain: an explicit "id" entry, then a nested
// "grains"/"fqdn" entry, then the OS-resolved hostname, then "node_name".
// The first non-empty candidate wins. hostConfig may be nil.
func ResolveInfo(hostConfig map[string]any, engineVersion string) Info {
	id := firstNonEmpty(
		stringField(hostConfig, "id"),
		nestedStringField(hostConfig, "grains", "fqdn"),
		resolvedHostname(),
		stringField(hostConfig, "node_name"),
	)

	role := stringField(hostConfig, "__role")

	return Info{
		Host:   HostInfo{ID: id, Role: role},
		Engine: EngineInfo{Version: engineVersion},
	}
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func nestedStringField(m map[string]any, outer, inner string) string {
	if m == nil {
		return ""
	}
	nested, ok := m[outer].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(nested, inner)
}

func resolvedHostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
