package gitcli

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/masmgr/govcs/vcs"
)

// Each commit record is prefixed by 0x1e (record separator) and its fields are
// NUL-separated. The body comes last because it may span several lines.
const logFormat = "%x1e%H%x00%cI%x00%an%x00%ae%x00%B"

// refFormat prints one reference per line with NUL-separated fields. The
// starred fields describe the object an annotated tag points to.
const refFormat = "%(refname)%00%(objecttype)%00%(objectname)%00%(committerdate:iso-strict)" +
	"%00%(*objecttype)%00%(*objectname)%00%(*committerdate:iso-strict)"

func parseLog(out []byte) ([]vcs.ChangesetInfo, error) {
	records := bytes.Split(out, []byte{0x1e})
	results := make([]vcs.ChangesetInfo, 0, len(records))

	for _, rec := range records {
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}

		fields := bytes.SplitN(rec, []byte{0x00}, 5)
		if len(fields) < 5 {
			return nil, fmt.Errorf("unexpected git log record format")
		}

		when, err := time.Parse(time.RFC3339, string(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("parse committer date: %w", err)
		}

		results = append(results, vcs.ChangesetInfo{
			ID:      string(fields[0]),
			When:    when,
			Author:  fmt.Sprintf("%s <%s>", fields[2], fields[3]),
			Message: strings.TrimRight(string(fields[4]), "\n"),
		})
	}

	return results, nil
}

// parseLsTree parses `git ls-tree -r -t -l -z` output:
// "<mode> SP <type> SP <object> SP <size>\t<path>" records terminated by NUL.
// Gitlinks (type "commit") are skipped.
func parseLsTree(out []byte) ([]vcs.Node, error) {
	nodes := make([]vcs.Node, 0, 128)
	i := 0
	for i < len(out) {
		rec, ok := readUntilNUL(out, &i)
		if !ok {
			return nil, fmt.Errorf("unexpected git ls-tree format (missing NUL)")
		}
		if len(rec) == 0 {
			continue
		}

		tab := bytes.IndexByte(rec, '\t')
		if tab == -1 {
			return nil, fmt.Errorf("unexpected git ls-tree entry: %q", string(rec))
		}
		meta := strings.Fields(string(rec[:tab]))
		path := string(rec[tab+1:])
		if len(meta) < 4 {
			return nil, fmt.Errorf("unexpected git ls-tree meta: %q", string(rec[:tab]))
		}

		switch meta[1] {
		case "tree":
			nodes = append(nodes, vcs.Node{Path: path, Kind: vcs.KindDir})
		case "blob":
			size, err := strconv.ParseInt(meta[3], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse blob size %q: %w", meta[3], err)
			}
			nodes = append(nodes, vcs.Node{Path: path, Kind: vcs.KindFile, Size: size})
		case "commit":
			continue
		default:
			return nil, fmt.Errorf("unexpected git ls-tree object type %q", meta[1])
		}
	}
	return nodes, nil
}

func parseRefs(out []byte) ([]vcs.Ref, error) {
	var refs []vcs.Ref
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		f := strings.Split(string(line), "\x00")
		if len(f) != 7 {
			return nil, fmt.Errorf("unexpected git for-each-ref line: %q", string(line))
		}

		refname, objType, object, date := f[0], f[1], f[2], f[3]
		if objType == "tag" {
			objType, object, date = f[4], f[5], f[6]
		}
		if objType != "commit" {
			continue
		}

		when, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse date of %s: %w", refname, err)
		}
		refs = append(refs, vcs.Ref{
			ID:       refname,
			Name:     shortRefName(refname),
			Revision: object,
			When:     when,
		})
	}
	return refs, nil
}

func shortRefName(refname string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/"} {
		if strings.HasPrefix(refname, prefix) {
			return strings.TrimPrefix(refname, prefix)
		}
	}
	return refname
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}
