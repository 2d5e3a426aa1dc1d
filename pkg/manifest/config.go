package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the top-level manifest.
type Config struct {
	Routes []Route `toml:"route"`
}

// Validate normalizes every route in place and rejects the manifest on the
// first bad or duplicated route.
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return errors.New("no routes defined")
	}
	seen := map[string]int{}
	for i := range c.Routes {
		rt := &c.Routes[i]
		if err := rt.normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := rt.validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, rt.Method, rt.Path, err)
		}
		if dt := strings.TrimSpace(rt.BodyType); dt != "" {
			if _, ok := LookupType(dt); !ok {
				return fmt.Errorf("route %d (%s %s): body_type %q not registered", i, rt.Method, rt.Path, dt)
			}
		}
		key := rt.Method + " " + rt.Path
		if j, dup := seen[key]; dup {
			return fmt.Errorf("route %d (%s): duplicates route %d", i, key, j)
		}
		seen[key] = i
	}
	return nil
}
