package calculation

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily log-return volatility.
const TradingDaysPerYear = 252

// HistoricalDataPoint is one closing price
type HistoricalDataPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// HistoricalDataSet is a price history with summary statistics
type HistoricalDataSet struct {
	Name       string                `json:"name"`
	Source     string                `json:"source"`
	DataPoints []HistoricalDataPoint `json:"data_points"`
	Statistics HistoricalStatistics  `json:"statistics"`
}

// HistoricalStatistics summarizes the daily log returns of a price history
type HistoricalStatistics struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Volatility float64 `json:"volatility"` // annualized
}

// LoadPriceHistory reads a CSV file with a header row and date,close columns.
// Dates use the 2006-01-02 layout. Rows that cannot be parsed are skipped; the
// remaining rows are sorted by date.
func LoadPriceHistory(filePath string) (*HistoricalDataSet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	ds, err := ReadPriceHistory(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	ds.Source = filePath
	return ds, nil
}

// ReadPriceHistory parses price history CSV from r.
func ReadPriceHistory(r io.Reader) (*HistoricalDataSet, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("invalid CSV format: expected at least 2 columns")
	}

	var points []HistoricalDataPoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) < 2 {
			continue // Skip malformed rows
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			continue
		}
		points = append(points, HistoricalDataPoint{Date: date, Close: price})
	}

	if len(points) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 closing prices, found %d", domain.ErrInvalidMarketParameters, len(points))
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	for _, p := range points {
		if !(p.Close > 0) {
			return nil, fmt.Errorf("%w: non-positive close %g on %s", domain.ErrInvalidMarketParameters, p.Close, p.Date.Format("2006-01-02"))
		}
	}

	ds := &HistoricalDataSet{Name: "close", DataPoints: points}
	ds.Statistics = calculateStatistics(ds.LogReturns())
	return ds, nil
}

// LogReturns returns ln(S_k / S_{k-1}) for consecutive closes.
func (ds *HistoricalDataSet) LogReturns() []float64 {
	returns := make([]float64, len(ds.DataPoints)-1)
	for k := 1; k < len(ds.DataPoints); k++ {
		returns[k-1] = math.Log(ds.DataPoints[k].Close / ds.DataPoints[k-1].Close)
	}
	return returns
}

// Volatility is the annualized sample standard deviation of the log returns.
func (ds *HistoricalDataSet) Volatility() float64 { return ds.Statistics.Volatility }

// LastClose returns the most recent closing price.
func (ds *HistoricalDataSet) LastClose() float64 { return ds.DataPoints[len(ds.DataPoints)-1].Close }

func calculateStatistics(returns []float64) HistoricalStatistics {
	mean, std := stat.MeanStdDev(returns, nil)
	return HistoricalStatistics{
		Count:      len(returns),
		Mean:       mean,
		StdDev:     std,
		Min:        floats.Min(returns),
		Max:        floats.Max(returns),
		Volatility: std * math.Sqrt(TradingDaysPerYear),
	}
}

// ValidateDataQuality reports duplicate dates, gaps of more than a week and
// daily moves above 50%.
func (ds *HistoricalDataSet) ValidateDataQuality() []string {
	var issues []string
	for k := 1; k < len(ds.DataPoints); k++ {
		prev, cur := ds.DataPoints[k-1], ds.DataPoints[k]
		switch gap := cur.Date.Sub(prev.Date); {
		case gap == 0:
			issues = append(issues, fmt.Sprintf("duplicate date %s", cur.Date.Format("2006-01-02")))
		case gap > 7*24*time.Hour:
			issues = append(issues, fmt.Sprintf("gap of %d days before %s", int(gap.Hours()/24), cur.Date.Format("2006-01-02")))
		}
		if r := math.Abs(math.Log(cur.Close / prev.Close)); r > math.Log(1.5) {
			issues = append(issues, fmt.Sprintf("extreme move on %s: %g -> %g", cur.Date.Format("2006-01-02"), prev.Close, cur.Close))
		}
	}
	return issues
}
