// Package certificate renders the human readable PDF that accompanies an issued credential.
package certificate

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Title is printed at the top of every certificate.
const Title = "Skillfolio Credential"

const (
	notAvailable = "N/A"
	placeholder  = "-"
	noComment    = "None"

	maxValueRunes   = 120
	maxCommentRunes = 480
	maxFooterRunes  = 300
)

// Certificate holds the values printed on the document.
type Certificate struct {
	StudentName   string
	StudentID     string
	ActivityTitle string
	Date          *time.Time
	Hours         *float64
	VerifiedBy    string
	VerifiedAt    time.Time
	Comment       string
	ClaimID       string
	VerifyURL     string
}

// Line is a single labelled row of the certificate body.
type Line struct {
	Label string
	Value string
}

// Renderer produces single page A4 certificates.
type Renderer struct {
	footer   string
	location *time.Location
}

// NewRenderer constructs a renderer. Timestamps are printed in loc, UTC when nil.
func NewRenderer(footer string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{footer: strings.TrimSpace(footer), location: loc}
}

// Lines returns the body rows in print order. Free text is clipped so the body always
// fits on one page.
func (r *Renderer) Lines(cert Certificate) []Line {
	return []Line{
		{Label: "Student", Value: clip(fmt.Sprintf("%s (%s)", orDefault(cert.StudentName, notAvailable), orDefault(cert.StudentID, notAvailable)), maxValueRunes)},
		{Label: "Activity", Value: clip(orDefault(cert.ActivityTitle, notAvailable), maxValueRunes)},
		{Label: "Date", Value: formatDate(cert.Date)},
		{Label: "Hours", Value: formatHours(cert.Hours)},
		{Label: "Verified by", Value: clip(orDefault(cert.VerifiedBy, notAvailable), maxValueRunes)},
		{Label: "Verification Date", Value: cert.VerifiedAt.In(r.location).Format("02 Jan 2006 15:04 MST")},
		{Label: "Comments", Value: clip(orDefault(cert.Comment, noComment), maxCommentRunes)},
	}
}

// Render lays out the certificate and returns the PDF bytes.
func (r *Renderer) Render(cert Certificate) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, true)
	pdf.SetCreator("skillfolio-api", true)
	pdf.SetSubject(cert.ClaimID, true)
	pdf.SetCreationDate(cert.VerifiedAt)
	pdf.SetModificationDate(cert.VerifiedAt)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, Title, "", 1, "C", false, 0, "")
	pdf.Ln(8)

	for _, line := range r.Lines(cert) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 8, line.Label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 8, translate(line.Value), "", "L", false)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(90, 90, 90)
	if r.footer != "" {
		pdf.MultiCell(0, 5, translate(clip(r.footer, maxFooterRunes)), "", "L", false)
	}
	if cert.VerifyURL != "" {
		pdf.MultiCell(0, 5, "Verify online: "+cert.VerifyURL, "", "L", false)
	}
	if cert.ClaimID != "" {
		pdf.MultiCell(0, 5, "Credential ID: "+cert.ClaimID, "", "L", false)
	}

	var buf bytes.Buffer
	if pages := pdf.PageCount(); pages != 1 {
		return nil, fmt.Errorf("render certificate: laid out %d pages", pages)
	}
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}

	return buf.Bytes(), nil
}

func formatDate(date *time.Time) string {
	if date == nil || date.IsZero() {
		return placeholder
	}
	return date.UTC().Format("02 Jan 2006")
}

func formatHours(hours *float64) string {
	if hours == nil {
		return placeholder
	}
	return strconv.FormatFloat(*hours, 'f', -1, 64)
}

func clip(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
