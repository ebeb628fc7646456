package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"CryptoSentinel/internal/forecast"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// renderForecast prints one symbol's predicted path.
func renderForecast(out io.Writer, asset model.Asset, res *model.ForecastResult) {
	t := newTable(out, fmt.Sprintf("%s %s  %d-day forecast", asset.Icon, asset.Name, res.PredictionDays))
	t.AppendHeader(table.Row{"Date", "Predicted", "Lower", "Upper"})
	for _, p := range res.Predictions {
		t.AppendRow(table.Row{p.Date, p.PredictedPrice, p.LowerBound, p.UpperBound})
	}
	t.AppendFooter(table.Row{"Change", fmt.Sprintf("%+.2f%%", res.PredictedChangePct), res.Direction, ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, Transformer: money},
		{Number: 3, Align: text.AlignRight, Transformer: money},
		{Number: 4, Align: text.AlignRight, Transformer: money},
	})
	t.Render()
	fmt.Fprintf(out, "current %.2f | MAE %.2f | RMSE %.2f | MAPE %.2f%% | %d rows\n\n",
		res.CurrentPrice, res.Metrics.MAE, res.Metrics.RMSE, res.Metrics.MAPE, res.TrainedOn)
}

func money(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

// renderSummary prints one line per symbol, failures included.
func renderSummary(out io.Writer, syms []string, results map[string]*model.ForecastResult, failures map[string]error) {
	t := newTable(out, "Training summary")
	t.AppendHeader(table.Row{"Symbol", "Current", "Final", "Change", "Direction", "MAPE", "Status"})
	for _, sym := range syms {
		if res, ok := results[sym]; ok {
			t.AppendRow(table.Row{sym, money(res.CurrentPrice), money(res.FinalPrice()),
				fmt.Sprintf("%+.2f%%", res.PredictedChangePct), res.Direction,
				fmt.Sprintf("%.2f%%", res.Metrics.MAPE), "ok"})
			continue
		}
		t.AppendRow(table.Row{sym, "", "", "", "", "", metrics.ErrorKind(failures[sym])})
	}
	t.Render()
}

// renderArtifact prints a saved model's metadata and parameter sizes.
func renderArtifact(out io.Writer, a *forecast.Artifact) error {
	t := newTable(out, "Saved model "+a.Symbol)
	t.AppendRows([]table.Row{
		{"Run", a.RunID},
		{"Model", a.Model},
		{"Rows", a.Rows},
		{"Trained", a.TrainedAt.UTC().Format(time.RFC3339)},
	})
	if a.Model == "additive" {
		var p forecast.AdditiveParams
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return fmt.Errorf("decode %s params: %w", a.Symbol, err)
		}
		names := make([]string, 0, len(p.Seasonalities))
		for _, s := range p.Seasonalities {
			names = append(names, fmt.Sprintf("%s(%g d, order %d)", s.Name, s.Period, s.Order))
		}
		sort.Strings(names)
		t.AppendRows([]table.Row{
			{"History", fmt.Sprintf("%s from %s", time.Duration(p.SpanSeconds*float64(time.Second)).Round(time.Hour), p.Start.UTC().Format("2006-01-02"))},
			{"Changepoints", len(p.Changepoints)},
			{"Seasonalities", names},
			{"Coefficients", len(p.Beta)},
			{"Noise variance", fmt.Sprintf("%.3g", p.NoiseVar)},
		})
	}
	t.Render()
	return nil
}
