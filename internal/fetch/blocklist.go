package fetch

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Blocklist filters out chain restaurants by case-insensitive substring
// match against the business name.
type Blocklist []string

// LoadBlocklist reads a YAML list of name fragments. A missing file yields
// an empty blocklist, not an error.
func LoadBlocklist(path string) (Blocklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Info("fetch: no blocklist file, chain filtering disabled",
				zap.String("path", path))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "fetch: read blocklist %s", path)
	}

	var entries []string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "fetch: parse blocklist %s", path)
	}

	bl := make(Blocklist, 0, len(entries))
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			bl = append(bl, e)
		}
	}
	return bl, nil
}

// Blocked reports whether name contains any blocklisted fragment.
func (b Blocklist) Blocked(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range b {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
