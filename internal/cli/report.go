package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/rules"
	"github.com/Veraticus/the-spice-must-sort/internal/settlement"
)

// RenderTable lays out rows under a bold header with padded columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, renderRow(headers, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}

// RenderSummary renders the batch counters relevant to the processing mode.
func RenderSummary(mode model.ProcessingMode, result *model.BatchResult) string {
	var sb strings.Builder
	line := func(label string, value int) {
		fmt.Fprintf(&sb, "  • %-18s %d\n", label+":", value)
	}

	line("Transactions", result.Total)
	line("Rule matches", result.RuleMatches)
	line("LLM categorized", result.LLMCategorized)
	line("LLM validated", result.LLMValidated)
	line("Conflicts", result.Conflicts)
	if result.Failed > 0 {
		line("Failed", result.Failed)
	}

	switch mode {
	case model.ProcessingDryRun:
		line("Would categorize", result.WouldCategorize)
	case model.ProcessingValidate:
		line("Would change", result.WouldChange)
		line("Unchanged", result.Unchanged)
	case model.ProcessingApply:
		line("Processed", result.Processed)
		line("Applied", result.Applied)
		line("Upgraded", result.Upgraded)
		line("Skipped", result.Skipped)
		reasons := make([]string, 0, len(result.SkipReasons))
		for reason := range result.SkipReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&sb, "      %s: %d\n", reason, result.SkipReasons[reason])
		}
	}

	title := fmt.Sprintf("Categorization (%s)", mode)
	body := strings.TrimRight(sb.String(), "\n")
	if result.Partial {
		body += "\n\n" + FormatWarning("Classifier failed; results are partial")
	}
	return RenderBox(title, body)
}

// RenderDecisions renders one row per transaction in input order.
func RenderDecisions(txns []model.Transaction, result *model.BatchResult) string {
	rows := make([][]string, 0, len(txns))
	for _, txn := range txns {
		d, ok := result.Details[txn.ID]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			txn.ID,
			truncate(txn.Payee, 32),
			txn.Amount.StringFixed(2),
			SourceStyle(d.Source).Render(string(d.Source)),
			d.Category,
			d.SuggestedCategory,
			strconv.Itoa(d.Confidence),
			strings.Join(decisionFlags(d), ","),
			strings.Join(d.Labels, ","),
		})
	}
	return RenderTable([]string{"ID", "Payee", "Amount", "Source", "Category", "Suggested", "Conf", "Flags", "Labels"}, rows)
}

func decisionFlags(d *model.CategorizationResult) []string {
	var flags []string
	if d.NeedsReview {
		flags = append(flags, "review")
	}
	if d.Validated {
		flags = append(flags, "validated")
	}
	if d.LLMUsed {
		flags = append(flags, "llm")
	}
	if d.Error != "" {
		flags = append(flags, "error")
	}
	return flags
}

// RenderRuns renders run history newest first.
func RenderRuns(runs []model.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := SuccessStyle.Render("ok")
		switch {
		case r.Error != "":
			status = ErrorStyle.Render("error")
		case r.FinishedAt == nil:
			status = WarningStyle.Render("running")
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			string(r.Mode),
			string(r.Strategy),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.RuleMatches),
			strconv.Itoa(r.LLMUsed),
			strconv.Itoa(r.Conflicts),
			strconv.Itoa(r.Applied),
			status,
		})
	}
	return RenderTable([]string{"Run", "Started", "Source", "Mode", "Strategy", "Total", "Rules", "LLM", "Conflicts", "Applied", "Status"}, rows)
}

// RenderRuleStats renders per-rule hit counts.
func RenderRuleStats(stats []model.RuleStat) string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		last := ""
		if s.LastUsed != nil {
			last = s.LastUsed.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{s.Rule, strconv.Itoa(s.Hits), last})
	}
	return RenderTable([]string{"Rule", "Hits", "Last used"}, rows)
}

// RenderTraces renders a rule diagnostic trace.
func RenderTraces(traces []rules.Trace) string {
	rows := make([][]string, 0, len(traces))
	for _, t := range traces {
		mark := SubtleStyle.Render("·")
		switch {
		case t.Applied:
			mark = SuccessStyle.Render(SuccessIcon)
		case t.Matched:
			mark = WarningStyle.Render("~")
		}
		rows = append(rows, []string{mark, string(t.Kind), t.Rule, t.Reason})
	}
	return RenderTable([]string{"", "Kind", "Rule", "Reason"}, rows)
}

// RenderGroups renders merchant groups, largest first.
func RenderGroups(groups []merchant.Group) string {
	sorted := make([]merchant.Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	rows := make([][]string, 0, len(sorted))
	for _, g := range sorted {
		fuzzy := ""
		if g.Similar {
			fuzzy = "fuzzy"
		}
		rows = append(rows, []string{g.Key, strconv.Itoa(g.Count), fuzzy, truncate(strings.Join(g.Payees, " | "), 72)})
	}
	return RenderTable([]string{"Merchant", "Count", "Match", "Payees"}, rows)
}

// RenderSettlement renders balances followed by the transfers that clear them.
func RenderSettlement(balances []settlement.Balance, transfers []settlement.Transfer) string {
	rows := make([][]string, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, []string{b.Member, b.Paid.StringFixed(2), b.Share.StringFixed(2), b.Net.StringFixed(2)})
	}
	out := RenderTable([]string{"Member", "Paid", "Share", "Net"}, rows)

	if len(transfers) == 0 {
		return out + "\n\n" + FormatSuccess("Everyone is settled up")
	}

	lines := make([]string, 0, len(transfers))
	for _, t := range transfers {
		lines = append(lines, fmt.Sprintf("%s pays %s %s", t.From, t.To, t.Amount.StringFixed(2)))
	}
	return out + "\n\n" + RenderBox("Settlements", strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
