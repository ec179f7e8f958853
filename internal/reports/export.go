package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

// ExportXLSX renders a report as a workbook: a summary sheet, then one
// sheet per section and, for payment reports, a targets sheet.
func ExportXLSX(rep *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	rows := [][]any{
		{"Report", string(rep.Kind)},
		{"Generated", rep.GeneratedAt.Format(time.RFC3339)},
		{"Records", rep.Total},
		{"Excluded", rep.Excluded},
		{"Total Amount", rep.TotalAmount.InexactFloat64()},
	}
	if rep.Range != nil {
		rows = append(rows,
			[]any{"From", rep.Range.Start.Format(time.RFC3339)},
			[]any{"To", rep.Range.End.Format(time.RFC3339)})
	}
	for i, row := range rows {
		if err := writeRow(f, summary, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summary, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("sizing summary sheet: %w", err)
	}

	for _, sec := range rep.Sections {
		if err := writeSection(f, sec, header); err != nil {
			return nil, err
		}
	}
	if len(rep.Targets) > 0 {
		if err := writeTargets(f, rep.Targets, header); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func writeSection(f *excelize.File, sec Section, style int) error {
	sheet := sheetName(sec.Name)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	headers := append(append([]string{}, sec.Columns...), "Count", "Percentage", "Total Amount")
	if err := writeHeader(f, sheet, headers, style); err != nil {
		return err
	}
	for i, b := range sec.Buckets {
		values := make([]any, 0, len(headers))
		for _, k := range b.Key {
			values = append(values, k)
		}
		values = append(values, b.Count, roundPct(b.Percentage), b.TotalAmount.InexactFloat64())
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeTargets(f *excelize.File, targets []TargetRow, style int) error {
	sheet := "Targets"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}
	headers := []string{"Salesperson", "Month", "Converted Leads Target", "Collection Target", "Collected", "Progress %"}
	if err := writeHeader(f, sheet, headers, style); err != nil {
		return err
	}
	for i, t := range targets {
		values := []any{
			t.SalesPerson, t.Month, t.ConvertedLeadsTarget,
			t.AmountCollectedTarget.InexactFloat64(), t.AmountCollected.InexactFloat64(),
			roundPct(t.ProgressPercent),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func roundPct(p float64) float64 {
	return float64(int64(p*100+0.5)) / 100
}

// ObjectPutter is the part of the S3 client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter uploads rendered workbooks to S3.
type Exporter struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewExporter creates an exporter writing under bucket/prefix.
func NewExporter(client ObjectPutter, bucket, prefix string, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: now}
}

// Key returns the object key for a report exported at t.
func (e *Exporter) Key(kind Kind, t time.Time) string {
	name := fmt.Sprintf("%s-%s.xlsx", kind, t.UTC().Format("20060102T150405Z"))
	if e.prefix == "" {
		return name
	}
	return e.prefix + "/" + name
}

// Upload renders rep and stores it, returning the object key.
func (e *Exporter) Upload(ctx context.Context, rep *Report) (string, error) {
	data, err := ExportXLSX(rep)
	if err != nil {
		return "", err
	}
	key := e.Key(rep.Kind, e.now())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3 bucket %s: %w", e.bucket, err)
	}
	logger.Info("report exported", "kind", string(rep.Kind), "bucket", e.bucket, "key", key, "bytes", len(data))
	return key, nil
}
