package checkpointer

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
)

const checkpointExt = ".ckpt"

// stepFilename returns the name of the file holding the given step,
// e.g. model-120.ckpt
func stepFilename(prefix string, step int) string {
	return fmt.Sprintf("%v-%v%v", prefix, step, checkpointExt)
}

// parseStep returns the integer suffix of a filename of the form
// <anything>-<n><ext> or <anything>.<n><ext>
func parseStep(name, ext string) (int, bool) {
	if !strings.HasSuffix(name, ext) {
		return 0, false
	}
	name = strings.TrimSuffix(name, ext)

	i := strings.LastIndexAny(name, "-.")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// enumerate returns, in increasing order, the integer suffixes of all
// files in dir named <prefix><sep><n><ext>
func enumerate(dir, prefix, ext string) ([]int, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var steps []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if len(rest) == 0 || (rest[0] != '-' && rest[0] != '.') {
			continue
		}
		if n, ok := parseStep(rest, ext); ok {
			steps = append(steps, n)
		}
	}
	sort.Ints(steps)
	return steps, nil
}
