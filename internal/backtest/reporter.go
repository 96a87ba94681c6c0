package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Report file names written by GenerateReport.
const (
	SummaryFile     = "evaluation_summary.txt"
	PredictionsFile = "predictions.csv"
	ResultsFile     = "evaluation_results.json"
)

// Reporter generates evaluation reports
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the summary, per-launch CSV and JSON reports.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generatePredictionLog(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	res := r.results

	fmt.Fprintf(w, "EVALUATION RESULTS SUMMARY\n")
	fmt.Fprintf(w, "==========================\n\n")
	fmt.Fprintf(w, "Run: %s (%s)\n\n", res.StartTime.Format("2006-01-02 15:04:05"), res.EndTime.Sub(res.StartTime))

	fmt.Fprintf(w, "CLASSIFICATION METRICS\n")
	fmt.Fprintf(w, "----------------------\n")
	fmt.Fprintf(w, "Launches Evaluated: %d\n", res.Total)
	fmt.Fprintf(w, "Launches Skipped: %d\n", res.Skipped)
	fmt.Fprintf(w, "Accuracy: %.2f%%\n", res.Accuracy*100)
	fmt.Fprintf(w, "Precision: %.2f%%\n", res.Precision*100)
	fmt.Fprintf(w, "Recall: %.2f%%\n", res.Recall*100)
	fmt.Fprintf(w, "F1 Score: %.4f\n", res.F1)
	fmt.Fprintf(w, "Brier Score: %.4f\n\n", res.BrierScore)

	fmt.Fprintf(w, "CONFUSION MATRIX\n")
	fmt.Fprintf(w, "----------------\n")
	fmt.Fprintf(w, "%-16s %10s %10s\n", "", "Pred Fail", "Pred Land")
	fmt.Fprintf(w, "%-16s %10d %10d\n", "Actual Fail", res.TrueNegatives, res.FalsePositives)
	fmt.Fprintf(w, "%-16s %10d %10d\n", "Actual Land", res.FalseNegatives, res.TruePositives)

	if len(res.BySite) > 0 {
		fmt.Fprintf(w, "\nACCURACY BY LAUNCH SITE\n")
		fmt.Fprintf(w, "-----------------------\n")
		for _, g := range res.BySite {
			fmt.Fprintf(w, "%s: %d launches, %.2f%% correct\n", g.Key, g.Count, g.Accuracy*100)
		}
	}
	if len(res.ByOrbit) > 0 {
		fmt.Fprintf(w, "\nACCURACY BY ORBIT\n")
		fmt.Fprintf(w, "-----------------\n")
		for _, g := range res.ByOrbit {
			fmt.Fprintf(w, "%s: %d launches, %.2f%% correct\n", g.Key, g.Count, g.Accuracy*100)
		}
	}
}

// generatePredictionLog writes one CSV row per evaluated launch.
func (r *Reporter) generatePredictionLog() error {
	csvPath := filepath.Join(r.outputPath, PredictionsFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create prediction log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"FlightNumber", "LaunchSite", "Orbit", "PayloadMass", "Actual", "Predicted", "Probability", "Correct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, ev := range r.results.Evaluations {
		record := []string{
			strconv.Itoa(ev.FlightNumber),
			ev.Site,
			ev.Orbit,
			strconv.FormatFloat(ev.PayloadMass, 'f', -1, 64),
			strconv.Itoa(ev.Actual),
			strconv.Itoa(ev.Predicted),
			fmt.Sprintf("%.4f", ev.Probability),
			strconv.FormatBool(ev.Correct()),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write prediction log: %w", err)
	}

	log.Info().Str("file", csvPath).Msg("Prediction log generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, ResultsFile)

	report := struct {
		*Results
		GeneratedAt time.Time `json:"generated_at"`
	}{r.results, time.Now()}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// PrintSummary prints a short summary to w.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.results
	fmt.Fprintln(w, "\n=== EVALUATION RESULTS ===")
	fmt.Fprintf(w, "Launches: %d evaluated, %d skipped\n", res.Total, res.Skipped)
	fmt.Fprintf(w, "Accuracy: %.2f%%\n", res.Accuracy*100)
	fmt.Fprintf(w, "Precision: %.2f%%\n", res.Precision*100)
	fmt.Fprintf(w, "Recall: %.2f%%\n", res.Recall*100)
	fmt.Fprintf(w, "F1 Score: %.4f\n", res.F1)
	fmt.Fprintf(w, "Brier Score: %.4f\n", res.BrierScore)
	fmt.Fprintf(w, "Confusion: TP=%d FP=%d TN=%d FN=%d\n",
		res.TruePositives, res.FalsePositives, res.TrueNegatives, res.FalseNegatives)
	fmt.Fprintln(w, "==========================")
}
