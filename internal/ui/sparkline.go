package ui

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the most recent width samples of data as block
// characters, scaled to the largest sample shown. Short input is
// left-padded with the lowest block.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}

	start := max(len(data)-width, 0)
	window := data[start:]

	peak := 0.0
	for _, v := range window {
		peak = max(peak, v)
	}

	out := make([]rune, 0, width)
	for range width - len(window) {
		out = append(out, sparkBlocks[0])
	}
	top := len(sparkBlocks) - 1
	for _, v := range window {
		if peak <= 0 || v <= 0 {
			out = append(out, sparkBlocks[0])
			continue
		}
		out = append(out, sparkBlocks[min(int(v/peak*float64(top)), top)])
	}
	return string(out)
}
