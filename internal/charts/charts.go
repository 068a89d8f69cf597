// Package charts renders the summary chart attached to bill reports.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/ivanoskov/billbot/internal/export"
	"github.com/ivanoskov/billbot/internal/model"
)

type ChartGenerator struct{}

func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// SpendingByType renders a PNG bar chart of bill counts per shop type.
// Returns nil bytes when there is nothing to chart.
func (g *ChartGenerator) SpendingByType(bills []model.Bill) ([]byte, error) {
	stats := export.Summarize(bills)
	if len(stats.ByShopType) == 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(stats.ByShopType))
	for _, entry := range stats.ByShopType {
		values = append(values, chart.Value{
			Label: entry.ShopType,
			Value: float64(entry.Count),
		})
	}

	graph := chart.BarChart{
		Title:  "Bills by Shop Type",
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		BarWidth: 60,
		Bars:     values,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buffer.Bytes(), nil
}
