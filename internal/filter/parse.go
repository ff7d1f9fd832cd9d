package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile reads skip rules from a file and adds them to the chain.
// Format:
//   - pattern  → exclude glob
//   + pattern  → include glob
//   # comment  → skip
//   blank line → skip
//   no prefix  → skip name when it has no glob or slash characters,
//     exclude glob otherwise
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open skip file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var addErr error
		switch {
		case strings.HasPrefix(line, "+ "):
			addErr = c.AddInclude(strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "- "):
			addErr = c.AddExclude(strings.TrimSpace(line[2:]))
		case !strings.ContainsAny(line, "*?[]{}/"):
			c.AddSkipName(line)
		default:
			addErr = c.AddExclude(line)
		}
		if addErr != nil {
			return fmt.Errorf("skip file %s line %d: %w", path, lineNum, addErr)
		}
	}

	return scanner.Err()
}
