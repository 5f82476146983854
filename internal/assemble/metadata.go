package assemble

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"git.home.luguber.info/inful/manuscript/internal/transclude"
)

// Generated metadata keys on collection outputs.
const (
	FieldTitle    = "title"
	FieldUID      = "uid"
	FieldRevision = "revision"
	FieldPosition = "position"
)

// leadFields are written ahead of a member's own fields.
var leadFields = []string{FieldTitle, FieldUID, FieldPosition, FieldRevision, mdfp.FingerprintField}

// MemberUID is the stable identifier of a collection output. The same prefix
// and stem always produce the same uid.
func MemberUID(prefix, stem string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("manuscript:"+prefix+"/"+stem)).String()
}

// Fingerprint hashes fields and body the way mdfp does, leaving out the
// fingerprint itself, the uid and the revision so only content changes move it.
func Fingerprint(fields map[string]any, body string) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case mdfp.FingerprintField, FieldUID, FieldRevision:
			continue
		}
		hashed[k] = v
	}
	fm := ""
	if len(hashed) > 0 {
		raw, err := frontmatter.Encoding{}.Encode(hashed)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(raw), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, body), nil
}

// memberFields builds the metadata of a collection output: the member's own
// fields, overridden by the generated ones.
func memberFields(own map[string]any, prefix string, m Member, revision, body string) (map[string]any, error) {
	fields := make(map[string]any, len(own)+5)
	maps.Copy(fields, own)
	fields[FieldTitle] = transclude.Stem(m.Directive.Target)
	fields[FieldUID] = MemberUID(prefix, m.Stem)
	fields[FieldPosition] = m.Position
	if revision != "" {
		fields[FieldRevision] = revision
	}
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return nil, err
	}
	fields[mdfp.FingerprintField] = fp
	return fields, nil
}

// Revision returns the HEAD commit of the git repository containing dir, or
// "" when dir is not inside one.
func Revision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository for revision stamp", "path", dir, "error", err)
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		slog.Debug("Repository has no HEAD", "path", dir, "error", err)
		return ""
	}
	return ref.Hash().String()
}
