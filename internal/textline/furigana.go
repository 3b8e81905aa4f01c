package textline

import (
	"math"

	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
)

// splitFurigana separates ruby annotation blobs from main text. A
// blob below the absolute size cap becomes furigana when a main blob
// exists whose character extent dwarfs it by the configured ratio and
// whose center lies within reach. Everything else is main text.
// Attachments are keyed by the label of the main blob.
func splitFurigana(components []blob.Blob, orientation order.Orientation, cfg Config) ([]blob.Blob, map[int][]blob.Blob) {
	mains := make([]blob.Blob, 0, len(components))
	candidates := make([]blob.Blob, 0)
	for _, c := range components {
		if charExtent(c.Box, orientation) < cfg.FuriganaMaxSize {
			candidates = append(candidates, c)
		} else {
			mains = append(mains, c)
		}
	}

	attachments := make(map[int][]blob.Blob)
	for _, cand := range candidates {
		host, ok := nearestHost(cand, mains, orientation, cfg)
		if !ok {
			// Small but with no plausible main neighbor, keep
			// it as regular text.
			mains = append(mains, cand)
			continue
		}
		attachments[host.Label] = append(attachments[host.Label], cand)
	}
	return mains, attachments
}

// nearestHost finds the closest main blob the candidate can annotate.
func nearestHost(cand blob.Blob, mains []blob.Blob, orientation order.Orientation, cfg Config) (blob.Blob, bool) {
	candExtent := charExtent(cand.Box, orientation)
	best := blob.Blob{}
	bestDist := math.Inf(1)
	found := false
	for _, m := range mains {
		hostExtent := charExtent(m.Box, orientation)
		if candExtent >= cfg.FuriganaHeightRatio*hostExtent {
			continue
		}
		dist := geometry.CenterDistance(cand.Box, m.Box)
		if dist > cfg.FuriganaReach*hostExtent {
			continue
		}
		if dist < bestDist {
			best, bestDist, found = m, dist, true
		}
	}
	return best, found
}

// attachFurigana distributes ruby blobs onto the lines holding their
// host blobs.
func attachFurigana(lines []TextLine, attachments map[int][]blob.Blob) {
	if len(attachments) == 0 {
		return
	}
	for i := range lines {
		for _, member := range lines[i].Blobs {
			if ruby, ok := attachments[member.Label]; ok {
				lines[i].Furigana = append(lines[i].Furigana, ruby...)
			}
		}
	}
}
