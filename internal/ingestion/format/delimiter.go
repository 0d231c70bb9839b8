package format

import (
	"bytes"
	"math"
)

// delimiterCandidates are the delimiters the sniffer considers, in fallback
// priority order.
var delimiterCandidates = []rune{'|', ',', ';'}

const headerFallbackMin = 4

// detectDelimiter infers the field delimiter. It first scores candidates by
// how consistently they split the sample's lines (low count variance relative
// to the mean wins), then falls back to whichever candidate appears at least
// four times in the header line, and defaults to comma.
func detectDelimiter(sample []byte) rune {
	best := rune(0)
	bestScore := math.MaxFloat64
	for _, candidate := range delimiterCandidates {
		counts := countPerLine(sample, byte(candidate))
		if len(counts) < 2 {
			continue
		}
		avg := mean(counts)
		if avg < 1 {
			continue
		}
		score := variance(counts, avg) / avg
		if score < bestScore {
			bestScore = score
			best = candidate
		}
	}
	if best != 0 {
		return best
	}

	header := sample
	if idx := bytes.IndexByte(sample, '\n'); idx >= 0 {
		header = sample[:idx]
	}
	for _, candidate := range delimiterCandidates {
		if bytes.Count(header, []byte(string(candidate))) >= headerFallbackMin {
			return candidate
		}
	}
	return ','
}

// countPerLine counts delimiter occurrences per line, ignoring quoted spans.
func countPerLine(sample []byte, delim byte) []int {
	var counts []int
	inQuote := false
	count := 0
	for _, b := range sample {
		switch {
		case b == '"':
			inQuote = !inQuote
		case inQuote:
		case b == delim:
			count++
		case b == '\n':
			counts = append(counts, count)
			count = 0
		}
	}
	if count > 0 {
		counts = append(counts, count)
	}
	return counts
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func variance(values []int, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := float64(v) - avg
		sum += d * d
	}
	return sum / float64(len(values))
}
