// Package visuals renders assessments as Mermaid diagrams wrapped in
// markdown code fences.
package visuals

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"jira-assess/internal/stats"
	"jira-assess/internal/timeline"
)

const ganttTimeFormat = "2006-01-02T15:04"

// ganttLabel strips the characters Mermaid's gantt grammar treats as syntax.
var ganttLabel = strings.NewReplacer(":", " ", "#", " ", ";", " ", "\n", " ")

// GenerateTimelineGantt creates a Mermaid gantt chart of the status periods,
// with blocked periods in a separate critical section. Open periods run
// until now.
func GenerateTimelineGantt(key string, periods []timeline.Period, blocked []timeline.BlockedPeriod, now time.Time) string {
	if len(periods) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("gantt\n")
	sb.WriteString(fmt.Sprintf("    title Status Timeline %s\n", ganttLabel.Replace(key)))
	sb.WriteString("    dateFormat YYYY-MM-DDTHH:mm\n")
	sb.WriteString("    axisFormat %m-%d\n")

	sb.WriteString("    section Status\n")
	for i, p := range periods {
		if p.Start.IsZero() {
			continue
		}
		end := p.EndOr(now)
		tag := ""
		if p.IsOpen() {
			tag = "active, "
		}
		sb.WriteString(fmt.Sprintf("    %s :%ss%d, %s, %s\n",
			ganttLabel.Replace(p.Status), tag, i,
			p.Start.UTC().Format(ganttTimeFormat), end.UTC().Format(ganttTimeFormat)))
	}

	if len(blocked) > 0 {
		sb.WriteString("    section Blocked\n")
		for i, b := range blocked {
			if b.Start.IsZero() {
				continue
			}
			end := now
			if b.End != nil {
				end = *b.End
			}
			label := "Blocked"
			if b.Reason != "" {
				label = truncate(ganttLabel.Replace(b.Reason), 40)
			}
			sb.WriteString(fmt.Sprintf("    %s :crit, b%d, %s, %s\n",
				label, i, b.Start.UTC().Format(ganttTimeFormat), end.UTC().Format(ganttTimeFormat)))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateStatusHoursChart creates a Mermaid bar chart of hours per status,
// statuses in name order.
func GenerateStatusHoursChart(hours map[string]float64) string {
	if len(hours) == 0 {
		return ""
	}

	names := make([]string, 0, len(hours))
	for name := range hours {
		names = append(names, name)
	}
	sort.Strings(names)

	var labels []string
	var values []string
	maxVal := 0.0
	for _, name := range names {
		labels = append(labels, fmt.Sprintf("%q", strings.ReplaceAll(name, " ", "_")))
		values = append(values, fmt.Sprintf("%.1f", hours[name]))
		maxVal = math.Max(maxVal, hours[name])
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Time in Status (Hours)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours\" 0 --> %d\n", int(math.Max(1, math.Ceil(maxVal*1.2)))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateCyclingPie creates a Mermaid pie chart of revisits per status.
// Statuses never revisited are left out.
func GenerateCyclingPie(c timeline.Cycling) string {
	if c.TotalRevisits == 0 {
		return ""
	}

	names := make([]string, 0, len(c.Count))
	for name, n := range c.Count {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Status Revisits\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("    %q : %d\n", name, c.Count[name]))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateXmRChart creates a Mermaid xychart-beta of in-progress days across
// a batch, with the average and upper natural process limit.
func GenerateXmRChart(result stats.XmRResult, labels []string) string {
	if len(result.Values) == 0 {
		return ""
	}

	var axis []string
	var values []string
	var averages []string
	var unpls []string

	for i, v := range result.Values {
		label := fmt.Sprintf("%d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		axis = append(axis, fmt.Sprintf("%q", label))
		values = append(values, fmt.Sprintf("%.1f", v))
		averages = append(averages, fmt.Sprintf("%.1f", result.Average))
		unpls = append(unpls, fmt.Sprintf("%.1f", result.UNPL))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"In-Progress Days (XmR)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(axis, ", ")))

	// Leave headroom above the UNPL
	maxY := result.UNPL * 1.2
	for _, v := range result.Values {
		if v > maxY {
			maxY = v * 1.1
		}
	}
	sb.WriteString(fmt.Sprintf("    y-axis \"Business Days\" 0 --> %d\n", int(math.Max(1, math.Ceil(maxY)))))

	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(unpls, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
