package collector

import (
	"time"

	"CryptoSentinel/internal/model"
)

// resample aggregates ascending bars into buckets of the given size, aligned
// to UTC. The last bucket may be partial.
func resample(bars []model.OHLCV, bucket time.Duration) []model.OHLCV {
	if len(bars) == 0 {
		return nil
	}
	var out []model.OHLCV
	var cur model.OHLCV
	var key time.Time
	started := false

	for _, b := range bars {
		k := b.Time.UTC().Truncate(bucket)
		if !started || !k.Equal(key) {
			if started {
				out = append(out, cur)
			}
			key = k
			cur = model.OHLCV{Time: k, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	return append(out, cur)
}
