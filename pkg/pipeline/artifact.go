package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactWriter writes run summaries to disk.
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

func (w *ArtifactWriter) baseName(summary *Summary) string {
	return fmt.Sprintf("%s-%s", summary.Workflow, summary.StartTime.UTC().Format("20060102T150405Z"))
}

// WriteAll writes the JSON and markdown summaries and returns their paths.
func (w *ArtifactWriter) WriteAll(summary *Summary) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath, err := w.WriteJSON(summary)
	if err != nil {
		return nil, err
	}

	mdPath, err := w.WriteMarkdown(summary)
	if err != nil {
		return nil, err
	}

	return []string{jsonPath, mdPath}, nil
}

// WriteJSON writes the full summary as JSON
func (w *ArtifactWriter) WriteJSON(summary *Summary) (string, error) {
	path := filepath.Join(w.outputDir, w.baseName(summary)+".json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return "", fmt.Errorf("failed to write summary JSON: %w", writeErr)
	}

	return path, nil
}

// WriteMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteMarkdown(summary *Summary) (string, error) {
	path := filepath.Join(w.outputDir, w.baseName(summary)+".md")

	var md strings.Builder

	md.WriteString(fmt.Sprintf("# litscreen %s run\n\n", summary.Workflow))
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Review:** %s\n\n", summary.ReviewID))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Second)))
	md.WriteString(fmt.Sprintf("**Stopped:** %s\n\n", summary.StopReason))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Completed**\n\n")
	}

	md.WriteString("## Counts\n\n")
	md.WriteString(fmt.Sprintf("- **Processed:** %d\n", summary.Processed))
	switch summary.Workflow {
	case WorkflowScreening:
		md.WriteString(fmt.Sprintf("- **Batches:** %d\n", summary.Batches))
		md.WriteString(fmt.Sprintf("- **Included:** %d\n", summary.Included))
		md.WriteString(fmt.Sprintf("- **Excluded:** %d\n", summary.Excluded))
		md.WriteString(fmt.Sprintf("- **Maybe:** %d\n", summary.Maybe))
	case WorkflowDedupe:
		md.WriteString(fmt.Sprintf("- **Fetched:** %d\n", summary.Fetched))
		md.WriteString(fmt.Sprintf("- **Clusters:** %d (%d skipped)\n", summary.Clusters, summary.ClustersSkipped))
		md.WriteString(fmt.Sprintf("- **Duplicates:** %d\n", summary.Duplicates))
		md.WriteString(fmt.Sprintf("- **Not duplicates:** %d\n", summary.NotDuplicates))
	}
	md.WriteString(fmt.Sprintf("- **Write failures:** %d\n", summary.WriteFailures))

	if len(summary.Reasons) > 0 {
		md.WriteString("\n## Reasons\n\n")
		md.WriteString("| Reason | Count |\n|---|---|\n")
		for _, reason := range sortedReasons(summary.Reasons) {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", reason, summary.Reasons[reason]))
		}
	}

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return "", fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return path, nil
}
