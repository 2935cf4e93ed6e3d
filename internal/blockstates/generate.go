package blockstates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blockdeck/blockdeck/internal/generator"
)

// ReportPath is where the generator writes the block report inside its output directory.
const ReportPath = "reports/blocks.json"

// Job returns the generator job producing the block report.
func Job(id string, classpath []string) generator.Job {
	return generator.Job{
		ID:        id,
		Classpath: classpath,
		Args:      []string{"--reports", "--output", generator.ScratchPlaceholder},
		Output:    ReportPath,
	}
}

// Generate runs the data generator on classpath and decodes its block report.
func Generate(ctx context.Context, runner *generator.Runner, id string, classpath []string) (Report, error) {
	var report Report
	err := runner.Run(ctx, Job(id, classpath), func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(&report); err != nil {
			return fmt.Errorf("decode %s: %w", ReportPath, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
