package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const (
	IssueMissingLawCode      = "missing_law_code"
	IssueMissingSectionRef   = "missing_section_ref"
	IssueMissingDocumentType = "missing_document_type"
	IssueMissingContent      = "missing_content"
	IssueInvalidDocumentType = "invalid_document_type"
	IssueNonStandardLawCode  = "non_standard_law_code"
	IssueContentTooShort     = "content_too_short"
	IssueContentTooLong      = "content_too_long"
	IssueOCRArtifact         = "ocr_artifacts"
	IssueDuplicateContent    = "duplicate_content"

	minContentRunes  = 50
	maxContentRunes  = 10000
	fingerprintRunes = 500
	defaultAuditPage = 1000
)

var lawCodePattern = regexp.MustCompile(`(?i)^(RA|PD|BP|IRR|NBCP|Rule)\s?[\dIVX]+`)

// ocrChecks are tried in order; only the first hit is reported per chunk.
var ocrChecks = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`\s{3,}`), "multiple consecutive spaces"},
	{regexp.MustCompile(`\n{3,}`), "multiple consecutive newlines"},
	{regexp.MustCompile(`[•·■□]`), "bullet character artifacts"},
	{regexp.MustCompile(`[âãäåæç]`), "possible mojibake characters"},
	{regexp.MustCompile(`\x00`), "null byte characters"},
	{regexp.MustCompile(`[\x{fffd}\x{fffe}\x{ffff}]`), "unicode replacement characters"},
}

type AuditIssue struct {
	Kind    string `json:"kind"`
	ChunkID string `json:"chunk_id"`
	Source  string `json:"source,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type AuditReport struct {
	Total    int            `json:"total"`
	Issues   []AuditIssue   `json:"issues"`
	DocTypes map[string]int `json:"document_types"`
	LawCodes map[string]int `json:"law_codes"`
}

// CountByKind tallies issues per kind.
func (r *AuditReport) CountByKind() map[string]int {
	out := make(map[string]int)
	for _, issue := range r.Issues {
		out[issue.Kind]++
	}
	return out
}

// RunAudit pages through every indexed chunk and collects data quality issues.
func RunAudit(ctx context.Context, lister bootstrap.ChunkLister, pageSize int) (*AuditReport, error) {
	if pageSize <= 0 {
		pageSize = defaultAuditPage
	}
	a := newAuditor()
	after := ""
	for {
		page, err := lister.ListPage(ctx, after, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list chunks after %q: %w", after, err)
		}
		for _, chunk := range page {
			a.check(chunk)
		}
		if len(page) < pageSize {
			break
		}
		after = page[len(page)-1].ID
	}
	return a.finish(), nil
}

type auditor struct {
	report       *AuditReport
	fingerprints map[string][]string
	fpOrder      []string
}

func newAuditor() *auditor {
	return &auditor{
		report: &AuditReport{
			DocTypes: make(map[string]int),
			LawCodes: make(map[string]int),
		},
		fingerprints: make(map[string][]string),
	}
}

func (a *auditor) add(kind string, c domain.Candidate, detail string) {
	a.report.Issues = append(a.report.Issues, AuditIssue{Kind: kind, ChunkID: c.ID, Source: c.Source, Detail: detail})
}

func (a *auditor) check(c domain.Candidate) {
	a.report.Total++

	lawCode := strings.TrimSpace(c.LawCode)
	docType := strings.TrimSpace(c.DocumentType)
	if lawCode == "" {
		a.add(IssueMissingLawCode, c, "")
	}
	if strings.TrimSpace(c.SectionRef) == "" {
		a.add(IssueMissingSectionRef, c, "")
	}
	if docType == "" {
		a.add(IssueMissingDocumentType, c, "")
	}
	if strings.TrimSpace(c.Content) == "" {
		a.add(IssueMissingContent, c, "")
	}

	if docType == "" {
		a.report.DocTypes["(empty)"]++
	} else {
		a.report.DocTypes[docType]++
		if !domain.IsValidDocumentType(strings.ToLower(docType)) {
			a.add(IssueInvalidDocumentType, c, docType)
		}
	}

	if lawCode != "" {
		a.report.LawCodes[c.LawCode]++
		if !lawCodePattern.MatchString(c.LawCode) {
			a.add(IssueNonStandardLawCode, c, c.LawCode)
		}
	}

	runes := utf8.RuneCountInString(c.Content)
	switch {
	case runes < minContentRunes:
		a.add(IssueContentTooShort, c, strconv.Itoa(runes))
	case runes > maxContentRunes:
		a.add(IssueContentTooLong, c, strconv.Itoa(runes))
	}
	for _, check := range ocrChecks {
		if check.pattern.MatchString(c.Content) {
			a.add(IssueOCRArtifact, c, check.name)
			break
		}
	}

	fp := strings.TrimSpace(truncateRunes(c.Content, fingerprintRunes))
	if _, ok := a.fingerprints[fp]; !ok {
		a.fpOrder = append(a.fpOrder, fp)
	}
	a.fingerprints[fp] = append(a.fingerprints[fp], c.ID)
}

func (a *auditor) finish() *AuditReport {
	for _, fp := range a.fpOrder {
		ids := a.fingerprints[fp]
		if len(ids) < 2 {
			continue
		}
		a.report.Issues = append(a.report.Issues, AuditIssue{
			Kind:    IssueDuplicateContent,
			ChunkID: strings.Join(ids, ","),
			Detail:  truncateRunes(fp, 100),
		})
	}
	return a.report
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func newAuditCommand(e *env) *cobra.Command {
	var (
		pageSize int
		csvPath  string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report data quality issues in the indexed corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.Chunks == nil {
				return fmt.Errorf("audit needs VECTOR_BACKEND=%s", config.VectorBackendPostgres)
			}

			report, err := RunAudit(cmd.Context(), app.Chunks, pageSize)
			if err != nil {
				return err
			}
			if csvPath != "" {
				if err := writeIssuesCSVFile(csvPath, report.Issues); err != nil {
					return err
				}
			}
			if e.asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return writeAuditSummary(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", defaultAuditPage, "chunks fetched per page")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write every issue to this CSV file")
	return cmd
}

func writeAuditSummary(w io.Writer, r *AuditReport) error {
	fmt.Fprintf(w, "Audited %d chunks\n\n", r.Total)

	counts := r.CountByKind()
	if len(counts) == 0 {
		fmt.Fprintln(w, "No issues found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ISSUE\tCOUNT")
		for _, kind := range sortedKeys(counts) {
			fmt.Fprintf(tw, "%s\t%d\n", kind, counts[kind])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nDocument types:")
	for _, docType := range sortedKeys(r.DocTypes) {
		fmt.Fprintf(w, "  %-22s %d\n", docType, r.DocTypes[docType])
	}

	codes := sortedKeys(r.LawCodes)
	sort.SliceStable(codes, func(i, j int) bool { return r.LawCodes[codes[i]] > r.LawCodes[codes[j]] })
	fmt.Fprintln(w, "\nTop law codes:")
	for i, code := range codes {
		if i == 10 {
			fmt.Fprintf(w, "  ... and %d more\n", len(codes)-10)
			break
		}
		fmt.Fprintf(w, "  %-22s %d\n", code, r.LawCodes[code])
	}
	return nil
}

func writeIssuesCSV(w io.Writer, issues []AuditIssue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"issue_type", "id", "source", "detail"}); err != nil {
		return err
	}
	for _, issue := range issues {
		if err := cw.Write([]string{issue.Kind, issue.ChunkID, issue.Source, issue.Detail}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeIssuesCSVFile(path string, issues []AuditIssue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}
	if err := writeIssuesCSV(f, issues); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv report: %w", err)
	}
	return f.Close()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
