package sparta

import (
	"github.com/kb-dev/git-sparta/internal/attrs"
	"github.com/kb-dev/git-sparta/internal/gitutil"
)

// GeneratePatterns resolves a project tag against the nearest
// repository enclosing repoDir and returns the full resolution: match
// pairs, matched tokens, and the sparse pattern list. Inside a
// deployed submodule working tree that is the submodule itself; from
// the host root, gitlinks with a materialized working tree are
// traversed and their matches come back prefix-qualified. Read-only.
func GeneratePatterns(d Deps, repoDir, tag string) (*attrs.Resolution, error) {
	root, err := gitutil.TopLevel(d.Run, repoDir)
	if err != nil {
		return nil, err
	}
	return attrs.NewResolver(d.Run, d.Attribute).Resolve(root, tag)
}

// DiscoverTags lists every tag present in the attribute data of the
// nearest repository enclosing repoDir (and its deployed submodules),
// with occurrence counts.
func DiscoverTags(d Deps, repoDir string) (map[string]int, error) {
	root, err := gitutil.TopLevel(d.Run, repoDir)
	if err != nil {
		return nil, err
	}
	return attrs.NewResolver(d.Run, d.Attribute).DiscoverTags(root)
}
