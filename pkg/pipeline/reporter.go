package pipeline

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/litscreen/pkg/types"
)

// Verbosity controls how much progress the Reporter prints.
type Verbosity int

const (
	// VerbosityQuiet prints warnings, errors, and the final summary.
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal adds one line per record and per cluster.
	VerbosityNormal
	// VerbosityVerbose adds reasons and pacing detail.
	VerbosityVerbose
	// VerbosityDebug prints everything.
	VerbosityDebug
)

// ParseVerbosity maps a config value to a Verbosity, defaulting to normal.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return VerbosityQuiet
	case "verbose":
		return VerbosityVerbose
	case "debug":
		return VerbosityDebug
	default:
		return VerbosityNormal
	}
}

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	amber      = lipgloss.Color("#F6C177")
	mutedGray  = lipgloss.Color("#6B7280")
	alertRed   = lipgloss.Color("203")
)

// Reporter prints console progress for a run.
type Reporter struct {
	level  Verbosity
	writer io.Writer

	header  lipgloss.Style
	section lipgloss.Style
	include lipgloss.Style
	exclude lipgloss.Style
	maybe   lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	box     lipgloss.Style
}

// NewReporter creates a reporter writing to w (stdout when nil).
func NewReporter(level Verbosity, w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)

	return &Reporter{
		level:   level,
		writer:  w,
		header:  r.NewStyle().Foreground(salmonPink).Bold(true),
		section: r.NewStyle().Foreground(salmonPink),
		include: r.NewStyle().Foreground(mintGreen).Bold(true),
		exclude: r.NewStyle().Foreground(salmonPink).Bold(true),
		maybe:   r.NewStyle().Foreground(amber).Bold(true),
		muted:   r.NewStyle().Foreground(mutedGray),
		warn:    r.NewStyle().Foreground(amber),
		fail:    r.NewStyle().Foreground(alertRed).Bold(true),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1),
	}
}

func (r *Reporter) printf(min Verbosity, style lipgloss.Style, format string, args ...interface{}) {
	if r == nil || r.level < min {
		return
	}
	fmt.Fprintln(r.writer, style.Render(fmt.Sprintf(format, args...)))
}

// Header prints a prominent run title.
func (r *Reporter) Header(title string) {
	r.printf(VerbosityNormal, r.header, "\n%s", title)
}

// Section prints a section divider.
func (r *Reporter) Section(title string) {
	r.printf(VerbosityNormal, r.section, "\n▶ %s", title)
	r.printf(VerbosityNormal, r.muted, "%s", strings.Repeat("─", 50))
}

// Infof prints an informational line.
func (r *Reporter) Infof(format string, args ...interface{}) {
	r.printf(VerbosityNormal, r.muted, format, args...)
}

// Verbosef prints detail shown in verbose mode.
func (r *Reporter) Verbosef(format string, args ...interface{}) {
	r.printf(VerbosityVerbose, r.muted, "→ "+format, args...)
}

// Warnf prints a warning.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	r.printf(VerbosityQuiet, r.warn, "⚠ "+format, args...)
}

// Errorf prints an error.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.printf(VerbosityQuiet, r.fail, "✗ "+format, args...)
}

// Decision prints the screening outcome for one record.
func (r *Reporter) Decision(rec types.Record, d types.Decision) {
	if r == nil || r.level < VerbosityNormal {
		return
	}

	var style lipgloss.Style
	switch d.Verdict {
	case types.VerdictInclude:
		style = r.include
	case types.VerdictExclude:
		style = r.exclude
	default:
		style = r.maybe
	}

	line := fmt.Sprintf("  %d  %s", rec.ID, style.Render(strings.ToUpper(string(d.Verdict))))
	if d.Reason != "" {
		line += " " + r.muted.Render("("+d.Reason+")")
	}
	fmt.Fprintln(r.writer, line)

	if r.level >= VerbosityVerbose && rec.Title != "" {
		r.printf(VerbosityVerbose, r.muted, "     %s", truncateTitle(rec.Title, 90))
	}
}

// Cluster announces a cluster about to be processed.
func (r *Reporter) Cluster(n, total int, c types.Cluster) {
	r.printf(VerbosityNormal, r.section, "\nCluster %d/%d (ID: %s) with %d records", n, total, c.ID, len(c.Members))
	if len(c.Members) > 0 {
		r.printf(VerbosityNormal, r.muted, "  Anchor record: %d", c.Anchor().ID)
	}
}

// Comparison prints the verdict for one cluster member.
func (r *Reporter) Comparison(anchor, other types.Record, v types.DuplicateVerdict) {
	if r == nil || r.level < VerbosityNormal {
		return
	}
	label := r.include.Render("NOT A DUPLICATE")
	if v.IsDuplicate {
		label = r.exclude.Render("DUPLICATE")
	}
	fmt.Fprintf(r.writer, "  %d vs %d  %s %s\n", anchor.ID, other.ID, label, r.muted.Render(v.Reason))
}

// Summary prints the end-of-run summary box. It is shown at every verbosity.
func (r *Reporter) Summary(s *Summary) {
	if r == nil || s == nil {
		return
	}

	var b strings.Builder
	b.WriteString(r.header.Render(strings.ToUpper(s.Workflow) + " SUMMARY"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Review:   %s\n", s.ReviewID)
	fmt.Fprintf(&b, "Stopped:  %s\n", s.StopReason)
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Second))

	switch s.Workflow {
	case WorkflowScreening:
		fmt.Fprintf(&b, "Processed %d in %d batches: %d included, %d excluded, %d maybe\n",
			s.Processed, s.Batches, s.Included, s.Excluded, s.Maybe)
		for _, reason := range sortedReasons(s.Reasons) {
			fmt.Fprintf(&b, "  %-24s %d\n", reason, s.Reasons[reason])
		}
	case WorkflowDedupe:
		fmt.Fprintf(&b, "Fetched %d records in %d clusters (%d skipped)\n", s.Fetched, s.Clusters, s.ClustersSkipped)
		fmt.Fprintf(&b, "Resolved %d: %d duplicates, %d not duplicates\n", s.Processed, s.Duplicates, s.NotDuplicates)
	}

	fmt.Fprintf(&b, "Write failures: %d", s.WriteFailures)
	if s.Error != "" {
		b.WriteString("\n")
		b.WriteString(r.fail.Render("Error: " + s.Error))
	}

	fmt.Fprintln(r.writer, r.box.Render(b.String()))
}

func sortedReasons(reasons map[string]int) []string {
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if reasons[keys[i]] != reasons[keys[j]] {
			return reasons[keys[i]] > reasons[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func truncateTitle(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
