package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"CryptoSentinel/internal/model"
)

var btc = model.Asset{Symbol: "BTC", Pair: "BTCUSDT", Name: "Bitcoin", Icon: "₿"}

func TestFormatSignalReport(t *testing.T) {
	s := model.Summary{
		Price: 65000.5, ChangePct: -1.25, RSI: 28.4, Score: 2.33, Signal: model.SignalBuy,
		ActiveRules: []model.ActiveRule{
			{Rule: "RSI Oversold", Direction: model.DirectionBuy, Explanation: "RSI = 28.4 < 30"},
		},
	}
	msg := FormatSignalReport(btc, model.Interval1d, s)
	for _, want := range []string{"Bitcoin 1d", "65000.50 (-1.25%)", "▲ RSI Oversold: RSI = 28.4 &lt; 30", "BUY (score +2.33)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatTransition(t *testing.T) {
	in := FormatTransition(btc, model.Interval1d, model.SignalBuy, model.Summary{Signal: model.SignalStrongBuy})
	if !strings.Contains(in, "BTC entered STRONG_BUY") || !strings.Contains(in, "BUY → STRONG_BUY") {
		t.Errorf("entry message:\n%s", in)
	}
	out := FormatTransition(btc, model.Interval1d, model.SignalStrongSell, model.Summary{Signal: model.SignalSell})
	if !strings.Contains(out, "BTC left STRONG_SELL") {
		t.Errorf("exit message:\n%s", out)
	}
}

func TestFormatForecast(t *testing.T) {
	res := &model.ForecastResult{
		Model: "additive", CurrentPrice: 100, PredictedChangePct: 2, Direction: model.DirectionUp,
		PredictionDays: 2, TrainedOn: 90,
		Predictions: []model.Prediction{
			{Date: "2025-05-02", PredictedPrice: 101, LowerBound: 95.95, UpperBound: 106.05},
			{Date: "2025-05-03", PredictedPrice: 102, LowerBound: 96.9, UpperBound: 107.1},
		},
	}
	msg := FormatForecast(btc, res)
	for _, want := range []string{"2-day forecast", "Final: 102.00 (+2.00%, UP)", "2025-05-03", "Trained on 90 rows"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.BaseURL = srv.URL
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.BaseURL = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestTelegramNotifier_PollOnce(t *testing.T) {
	var sent atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") != "7" {
				t.Errorf("offset = %s", r.URL.Query().Get("offset"))
			}
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /help "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/ignored"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			sent.Add(1)
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.BaseURL = srv.URL
	var commands []string
	handler := func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/help" {
			return "help text"
		}
		return ""
	}

	next, err := n.pollOnce(context.Background(), n.Client, 7, handler)
	if err != nil {
		t.Fatal(err)
	}
	if next != 10 {
		t.Errorf("next offset = %d, want 10", next)
	}
	if len(commands) != 2 || commands[0] != "/help" {
		t.Errorf("commands = %v", commands)
	}
	if sent.Load() != 1 {
		t.Errorf("replies sent = %d, want 1", sent.Load())
	}
}
