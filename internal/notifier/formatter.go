package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CryptoSentinel/internal/model"
)

func signalEmoji(s model.Signal) string {
	switch s {
	case model.SignalStrongBuy:
		return "🟢🟢"
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	case model.SignalStrongSell:
		return "🔴🔴"
	default:
		return "⚪"
	}
}

func directionMark(d model.Direction) string {
	switch d {
	case model.DirectionBuy:
		return "▲"
	case model.DirectionSell:
		return "▼"
	default:
		return "•"
	}
}

// FormatSignalReport formats a symbol's latest summary into a Telegram message.
func FormatSignalReport(asset model.Asset, interval model.Interval, s model.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", asset.Icon, html.EscapeString(asset.Name), interval,
		time.Now().UTC().Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Price: %.2f (%+.2f%%)\n", s.Price, s.ChangePct))
	b.WriteString(fmt.Sprintf("RSI: %.1f | ADX: %.1f | %%K: %.1f\n", s.RSI, s.ADX, s.StochK))
	b.WriteString(fmt.Sprintf("MACD hist: %+.4f | BB %%B: %.2f\n", s.MACDHist, s.BBPercent))
	b.WriteString(fmt.Sprintf("Pivot: %.2f (R1 %.2f / S1 %.2f)\n\n", s.Pivot, s.R1, s.S1))

	if len(s.ActiveRules) > 0 {
		b.WriteString("📈 <b>Active rules:</b>\n")
		for _, r := range s.ActiveRules {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", directionMark(r.Direction), r.Rule, html.EscapeString(r.Explanation)))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%s <b>Signal:</b> %s (score %+.2f)\n", signalEmoji(s.Signal), s.Signal, s.Score))
	return b.String()
}

// FormatTransition announces a label change into or out of a strong tier.
func FormatTransition(asset model.Asset, interval model.Interval, prev model.Signal, s model.Summary) string {
	var b strings.Builder
	if s.Signal.Strong() {
		b.WriteString(fmt.Sprintf("🚨 <b>%s entered %s</b>\n", asset.Symbol, s.Signal))
	} else {
		b.WriteString(fmt.Sprintf("ℹ️ <b>%s left %s</b>\n", asset.Symbol, prev))
	}
	b.WriteString(fmt.Sprintf("%s → %s\n\n", labelOrNone(prev), s.Signal))
	b.WriteString(FormatSignalReport(asset, interval, s))
	return b.String()
}

func labelOrNone(s model.Signal) model.Signal {
	if s == "" {
		return model.SignalNeutral
	}
	return s
}

// FormatForecast formats a forecast run with its predicted path.
func FormatForecast(asset model.Asset, res *model.ForecastResult) string {
	var b strings.Builder

	arrow := "📉"
	if res.Direction == model.DirectionUp {
		arrow = "📈"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %d-day forecast</b>\n\n", arrow, html.EscapeString(asset.Name), res.PredictionDays))
	b.WriteString(fmt.Sprintf("Current: %.2f\n", res.CurrentPrice))
	b.WriteString(fmt.Sprintf("Final: %.2f (%+.2f%%, %s)\n\n", res.FinalPrice(), res.PredictedChangePct, res.Direction))

	b.WriteString("<pre>")
	for _, p := range res.Predictions {
		b.WriteString(fmt.Sprintf("%-16s %12.2f  [%.2f – %.2f]\n", p.Date, p.PredictedPrice, p.LowerBound, p.UpperBound))
	}
	b.WriteString("</pre>\n")

	b.WriteString(fmt.Sprintf("Back-test: MAE %.2f | RMSE %.2f | MAPE %.2f%%\n", res.Metrics.MAE, res.Metrics.RMSE, res.Metrics.MAPE))
	b.WriteString(fmt.Sprintf("Trained on %d rows with %s\n", res.TrainedOn, res.Model))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp(symbols []string) string {
	var b strings.Builder
	b.WriteString("🤖 <b>CryptoSentinel</b>\n\n")
	b.WriteString("/signal &lt;SYMBOL&gt; - latest indicators and signal\n")
	b.WriteString("/predict &lt;SYMBOL&gt; [days] - price forecast, 1-30 days\n")
	b.WriteString("/help - this message\n\n")
	b.WriteString(fmt.Sprintf("Symbols: %s\n", strings.Join(symbols, ", ")))
	return b.String()
}
