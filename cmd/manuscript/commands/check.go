package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"git.home.luguber.info/inful/manuscript/internal/assemble"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/markers"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Index  string `arg:"" optional:"" help:"Index file listing the members (default: garden.index)"`
	Format string `short:"f" help:"Output format (text or json)" default:"text" enum:"text,json"`
	Strict bool   `help:"Fail when any warning was recorded"`
}

// checkMember is one member in JSON output.
type checkMember struct {
	Position int             `json:"position"`
	Target   string          `json:"target"`
	Path     string          `json:"path"`
	Title    string          `json:"title,omitempty"`
	Exists   bool            `json:"exists"`
	Offsets  markers.Offsets `json:"offsets"`
}

// checkOutput is the JSON document written by 'check --format json'.
type checkOutput struct {
	Index   string            `json:"index"`
	Members []checkMember     `json:"members"`
	Labels  markers.LabelMap  `json:"labels"`
	Figures int               `json:"figures"`
	Tables  int               `json:"tables"`
	Report  report.JSONOutput `json:"report"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	index, _ := gardenPaths(root, cfg, c.Index, "")

	ins, err := newGarden(root, cfg, true, metrics.NoopRecorder{}).Inspect(index)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		err = writeCheckJSON(g.Out, ins)
	} else {
		err = writeCheckText(g.Out, ins)
	}
	if err != nil {
		return err
	}

	if c.Strict && (ins.Report.HasWarnings() || ins.Report.HasErrors()) {
		return ferrors.ValidationError("check found issues").
			WithContext("warnings", ins.Report.WarningCount()).
			WithContext("errors", ins.Report.ErrorCount()).Build()
	}
	return nil
}

func writeCheckJSON(w io.Writer, ins *assemble.Inspection) error {
	out := checkOutput{
		Index:   ins.Index,
		Members: make([]checkMember, 0, len(ins.Members)),
		Labels:  ins.Labels,
		Figures: ins.Totals.Figures,
		Tables:  ins.Totals.Tables,
		Report:  report.NewJSONOutput("check", ins.Report),
	}
	for _, m := range ins.Members {
		out.Members = append(out.Members, checkMember{
			Position: m.Position,
			Target:   m.Directive.Target,
			Path:     m.Path,
			Title:    m.Title,
			Exists:   m.Exists,
			Offsets:  m.Offsets,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeCheckText(w io.Writer, ins *assemble.Inspection) error {
	members := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers("#", "MEMBER", "FIG OFFSET", "TBL OFFSET", "TITLE")
	for _, m := range ins.Members {
		title := m.Title
		if !m.Exists {
			title = "(missing)"
		}
		members.Row(strconv.Itoa(m.Position), m.Display(),
			strconv.Itoa(m.Offsets.Figures), strconv.Itoa(m.Offsets.Tables), title)
	}
	fmt.Fprintln(w, titleStyle.Render("Members of "+ins.Index))
	fmt.Fprintln(w, members.String())

	if len(ins.Labels) > 0 {
		labels := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(labelStyle).
			Headers("LABEL", "NUMBER", "FILE")
		for _, token := range slices.Sorted(maps.Keys(ins.Labels)) {
			l := ins.Labels[token]
			labels.Row(token, strconv.Itoa(l.Number), l.File)
		}
		fmt.Fprintln(w, titleStyle.Render("Labels"))
		fmt.Fprintln(w, labels.String())
	}
	fmt.Fprintf(w, "%d figures, %d tables\n\n", ins.Totals.Figures, ins.Totals.Tables)
	return report.NewFormatter("text").Format(w, "Check", ins.Report)
}
