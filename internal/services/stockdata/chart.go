package stockdata

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rsharda/stockpulse/internal/models"
)

// RenderHistoryChart renders a PNG line chart of a record's closing prices.
// Returns raw PNG bytes.
func RenderHistoryChart(record *models.StockRecord) ([]byte, error) {
	if record == nil || len(record.History) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to chart")
	}

	xValues := make([]time.Time, 0, len(record.History))
	yValues := make([]float64, 0, len(record.History))

	for _, bar := range record.History {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		xValues = append(xValues, date)
		yValues = append(yValues, bar.Close)
	}
	if len(xValues) < 2 {
		return nil, fmt.Errorf("need at least 2 dated bars to chart")
	}

	closeSeries := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Close Price", record.Symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{closeSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
