package trybeauth

import "strings"

// routeTable is the gate's static view of GateConfig.
type routeTable struct {
	excluded  map[Endpoint]struct{}
	protected []string
}

func newRouteTable(cfg GateConfig) *routeTable {
	t := &routeTable{
		excluded:  make(map[Endpoint]struct{}, len(cfg.Excluded)),
		protected: append([]string(nil), cfg.Protected...),
	}
	for _, ep := range cfg.Excluded {
		t.excluded[Endpoint{Method: strings.ToUpper(ep.Method), Path: ep.Path}] = struct{}{}
	}
	return t
}

// isExcluded matches method and path exactly.
func (t *routeTable) isExcluded(method, path string) bool {
	_, ok := t.excluded[Endpoint{Method: strings.ToUpper(method), Path: path}]
	return ok
}

// isProtected is a plain string-prefix match, so "/v1/users/me" also covers
// "/v1/users/me/avatar" and "/v1/users/meta".
func (t *routeTable) isProtected(path string) bool {
	for _, prefix := range t.protected {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
