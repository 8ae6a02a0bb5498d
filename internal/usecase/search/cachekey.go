package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/request"
)

// BuildKey derives the cache fingerprint of a request against its resolved
// database scope. Two requests that differ only in query casing, surrounding
// whitespace, or the ordering of their scope lists produce the same key.
// Caller identity is excluded: callers whose requests resolve to the same
// target set share one cache slot. Keying on the resolved ids rather than
// the requested list matters because an empty databases list means "all
// databases the caller owns", which differs per caller.
func BuildKey(req *request.Request, targetIDs []string) string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strings.ToLower(strings.TrimSpace(req.Query())))
	b.WriteString("|db=")
	b.WriteString(canonical(targetIDs))
	b.WriteString("|t=")
	b.WriteString(canonical(req.Tables()))
	b.WriteString("|c=")
	b.WriteString(canonical(req.Columns()))
	fmt.Fprintf(&b, "|m=%s|l=%d|o=%d", req.Mode(), req.Limit(), req.Offset())

	sum := sha256.Sum256([]byte(b.String()))
	return "search:" + hex.EncodeToString(sum[:])
}

func canonical(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
