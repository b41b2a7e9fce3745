// Package tagutil computes content digests for origin tags.
//
// Origin tags are compared by digest rather than lexically: the digest is a
// CIDv1 string (raw multicodec, sha2-256 multihash) over the tag bytes, which
// gives a compact, canonical key for equality checks and index storage.
package tagutil

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Digest returns the CIDv1 (raw + sha2-256) string of the tag bytes.
func Digest(tag string) string {
	sum, err := multihash.Sum([]byte(tag), multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid codes; with SHA2_256 and -1
		// length this is unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// Equal reports whether two tags are byte-identical, compared via digest.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return Digest(a) == Digest(b)
}

// Split breaks an origin tag into its source collection and token id parts.
// Returns ok=false if the tag does not contain a separator.
func Split(tag string) (collection, tokenID string, ok bool) {
	i := strings.IndexByte(tag, '/')
	if i <= 0 || i == len(tag)-1 {
		return "", "", false
	}
	return tag[:i], tag[i+1:], true
}
