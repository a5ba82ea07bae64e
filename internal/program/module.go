package program

import "lumen/internal/worldfile"

// Module is the loading-time metadata of one snapshot: enough for the
// import graph and the cache key without holding the decoded document.
type Module struct {
	Name    string // module name the snapshot declares
	Path    string // file the snapshot came from
	Imports []string
	Digest  worldfile.Digest // content digest of the encoded snapshot
}

// ModuleHash combines a module's own content digest with the module hashes
// of its dependencies, in the import graph's deterministic order. Equal
// hashes mean the module and everything below it are unchanged.
func ModuleHash(content worldfile.Digest, deps ...worldfile.Digest) worldfile.Digest {
	if len(deps) == 0 {
		return content
	}
	parts := make([]worldfile.Digest, 0, len(deps)+1)
	parts = append(parts, content)
	parts = append(parts, deps...)
	return worldfile.CombineDigests(parts...)
}
