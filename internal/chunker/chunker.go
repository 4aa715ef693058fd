// Package chunker turns an ordered document structure into page-range work
// units sized for a single extraction call. Sections are never split: a
// section larger than the page budget becomes an oversized chunk of its own.
package chunker

import "filingest/internal/filing"

// DefaultMaxPages is the page budget used when none is configured.
const DefaultMaxPages = 8

// Plan packs sections into chunks greedily, in order. A chunk boundary is
// inserted only when appending the next section would push the running
// window past maxPages, or when a single section exceeds maxPages on its
// own. A section whose span exactly equals maxPages is not oversized.
func Plan(sections []filing.Section, maxPages int) []filing.Chunk {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var chunks []filing.Chunk
	var open *filing.Chunk

	flush := func() {
		if open != nil {
			chunks = append(chunks, *open)
			open = nil
		}
	}

	for _, sec := range sections {
		if sec.Pages() > maxPages {
			// Oversized section: ships alone, whole.
			flush()
			chunks = append(chunks, filing.Chunk{
				StartPage: sec.StartPage,
				EndPage:   sec.EndPage,
				Sections:  []string{sec.Name},
				HasData:   sec.HasData,
			})
			continue
		}

		if open != nil && sec.EndPage-open.StartPage+1 > maxPages {
			flush()
		}
		if open == nil {
			open = &filing.Chunk{StartPage: sec.StartPage}
		}
		open.EndPage = sec.EndPage
		open.Sections = append(open.Sections, sec.Name)
		open.HasData = open.HasData || sec.HasData
	}
	flush()

	return chunks
}
