package assemble

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/manuscript/internal/markdown"
	"git.home.luguber.info/inful/manuscript/internal/markers"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// MemberInfo is what Inspect knows about one member without converting it.
type MemberInfo struct {
	Member
	// Title is the member's first level-1 heading, if any.
	Title   string
	Offsets markers.Offsets
	Exists  bool
}

// Inspection is the pre-scan view of a collection.
type Inspection struct {
	Index   string
	Members []MemberInfo
	Labels  markers.LabelMap
	Totals  markers.Counters
	Report  *report.Result
}

// Inspect lists the members of indexPath and numbers their markers without
// writing anything.
func (g *Garden) Inspect(indexPath string) (*Inspection, error) {
	rep := report.New(g.logger)
	// #nosec G304 -- the index is named by the user.
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, readError(err, indexPath)
	}
	members := Members(string(raw), filepath.Dir(indexPath), g.opts.Extension)
	scan := markers.PreScan(memberPaths(members), markers.Options{Scanner: g.opts.Scanner, Report: rep, Logger: g.logger})

	infos := make([]MemberInfo, len(members))
	for i, m := range members {
		infos[i] = MemberInfo{Member: m, Offsets: scan.Offsets[i]}
		src, err := ReadSource(m.Path)
		if src == nil {
			if isMissing(err) {
				rep.Warn(report.KindMissingInclusionTarget, indexPath, m.Directive.Target, "member file does not exist")
			}
			continue
		}
		infos[i].Exists = true
		infos[i].Title = markdown.Title([]byte(src.Body))
	}

	return &Inspection{
		Index:   indexPath,
		Members: infos,
		Labels:  scan.Labels,
		Totals:  scan.Totals,
		Report:  rep,
	}, nil
}
