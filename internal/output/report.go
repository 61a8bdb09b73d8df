package output

import (
	"fmt"
	"io"
	"os"

	"github.com/rpgo/pricer/internal/domain"
	"gopkg.in/yaml.v3"
)

// GenerateReport formats the report with the named formatter and writes it to a
// timestamped file in dir. The path of the written file is returned.
func GenerateReport(report *domain.PricingReport, format, dir string) (string, error) {
	f, err := LookupFormatter(format)
	if err != nil {
		return "", err
	}
	return WriteFormatted(f, report, dir)
}

// WriteReport formats the report with the named formatter and writes it to w.
func WriteReport(w io.Writer, report *domain.PricingReport, format string) error {
	f, err := LookupFormatter(format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// SaveConfiguration writes a configuration back out as YAML.
func SaveConfiguration(config *domain.Configuration, filename string) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
