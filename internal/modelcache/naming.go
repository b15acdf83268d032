package modelcache

import "strings"

// ArtifactSuffix is appended to every cached artifact name.
const ArtifactSuffix = ".onnx"

// ArtifactName maps a repository identifier to its file name in the cache root.
func ArtifactName(repo string) string {
	return strings.ReplaceAll(repo, "/", "_") + ArtifactSuffix
}

// RepoFromArtifact reverses ArtifactName as far as it can: every '_' comes
// back as '/', so repos containing '_' do not round-trip. ok is false for
// names outside the convention.
func RepoFromArtifact(name string) (repo string, ok bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ArtifactSuffix) {
		return "", false
	}
	base := strings.TrimSuffix(name, ArtifactSuffix)
	if base == "" {
		return "", false
	}
	return strings.ReplaceAll(base, "_", "/"), true
}
