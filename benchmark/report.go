package benchmark

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/swdee/go-lpkit/metrics"
)

// ReportExt is the extension of per weight report files
const ReportExt = ".txt"

// ReportPath returns the report file of a weight in the info folder
func ReportPath(infoFolder, weightName string) string {
	return filepath.Join(infoFolder, strings.TrimSuffix(weightName, filepath.Ext(weightName))+ReportExt)
}

// FormatReport renders the summary as the report file content, every metric
// is a percentage with one decimal place
func FormatReport(s metrics.Summary) string {

	var b strings.Builder

	for _, l := range reportLines(s) {
		fmt.Fprintf(&b, "%s:%.1f\n", l.name, l.value*100)
	}

	return b.String()
}

// printSummary writes the summary to the console output
func printSummary(w io.Writer, s metrics.Summary) {
	for _, l := range reportLines(s) {
		fmt.Fprintf(w, "\t%s: %.1f\n", l.name, l.value*100)
	}
}

type reportLine struct {
	name  string
	value float64
}

func reportLines(s metrics.Summary) []reportLine {
	return []reportLine{
		{"COCO mAP", s.MAP},
		{"COCO mAP50", s.MAP50},
		{"COCO mAP75", s.MAP75},
		{"classification accuracy", s.ClassAccuracy},
		{"average iou for front-rear", s.FrontRearIoU},
	}
}

// WriteReport creates the report file, an existing report is never
// overwritten
func WriteReport(path string, s metrics.Summary) error {

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)

	if err != nil {
		return fmt.Errorf("error creating report: %w", err)
	}

	if _, err := f.WriteString(FormatReport(s)); err != nil {
		f.Close()
		return fmt.Errorf("error writing report %s: %w", path, err)
	}

	return f.Close()
}
