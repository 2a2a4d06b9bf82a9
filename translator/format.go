package translator

import (
	"fmt"
	"strings"
	"time"

	"github.com/teatak/smt/decoder"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/phrasetable"
)

// Text returns the 1-best output line. It is empty when nothing was found,
// so output stays aligned with the input.
func (r Result) Text() string {
	if !r.Found && !r.Degraded {
		return ""
	}
	return strings.Join(r.Words, " ")
}

// FormatSegmentation renders segments with their source spans:
// "the |0-0| small house |1-2|".
func FormatSegmentation(segs []decoder.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		span := fmt.Sprintf("|%d-%d|", seg.Source.Start, seg.Source.End)
		if len(seg.Target) == 0 {
			parts = append(parts, span)
			continue
		}
		parts = append(parts, strings.Join(seg.Target, " ")+" "+span)
	}
	return strings.Join(parts, " ")
}

// NBestLine renders one n-best entry:
// "id ||| surface ||| d: .. lm: .. w: .. tm: .. unk: .. ||| total".
func NBestLine(layout *features.Layout, id int, c Candidate) string {
	return strings.Join([]string{
		fmt.Sprint(id),
		strings.Join(c.Words, " "),
		layout.Format(c.Breakdown),
		features.FormatScore(c.Score),
	}, phrasetable.Separator)
}

// NBestLines renders the n-best list of r under its ID.
func (t *Translator) NBestLines(r Result) []string {
	lines := make([]string, 0, len(r.NBest))
	for _, c := range r.NBest {
		lines = append(lines, NBestLine(t.layout, r.ID, c))
	}
	return lines
}

// OutputLine renders the 1-best line, with the segmentation trace when
// report_segmentation is enabled.
func (t *Translator) OutputLine(r Result) string {
	if t.cfg.Search.ReportSegmentation && r.Found {
		return FormatSegmentation(r.Segments)
	}
	return r.Text()
}

func fmtSummary(id string, n, failed, degraded int64, elapsed time.Duration, rate float64) string {
	return fmt.Sprintf("run %s: %d sentences, %d without translation, %d degraded in %v (%.1f sent/s)",
		id, n, failed, degraded, elapsed.Round(time.Millisecond), rate)
}
